package scanner

import (
	"testing"
	"time"

	"go.viam.com/test"
)

func TestAcceptsIsStrict(t *testing.T) {
	test.That(t, Accepts(0.8), test.ShouldBeFalse)
	test.That(t, Accepts(0.79), test.ShouldBeFalse)
	test.That(t, Accepts(0.8000001), test.ShouldBeTrue)
	test.That(t, Accepts(1), test.ShouldBeTrue)
}

func TestGateMatchesExactLabels(t *testing.T) {
	g := NewGate(testCatalog(t), 0, PolicyAll, testEntry())
	now := time.Unix(0, 0)

	test.That(t, g.Evaluate(now, predictions("loa", 0.99)), test.ShouldBeEmpty)
	test.That(t, g.Evaluate(now, predictions("Tivi", 0.99)), test.ShouldBeEmpty)

	matches := g.Evaluate(now, predictions("Loa", 0.85))
	test.That(t, len(matches), test.ShouldEqual, 1)
	test.That(t, matches[0].Item.Price, test.ShouldEqual, int64(250000))
	test.That(t, matches[0].Probability, test.ShouldEqual, 0.85)
}

func TestGateUnknownLabelDoesNotStartCooldown(t *testing.T) {
	g := NewGate(testCatalog(t), 3*time.Second, PolicyAll, testEntry())
	now := time.Unix(100, 0)

	test.That(t, g.Evaluate(now, predictions("Tivi", 0.95)), test.ShouldBeEmpty)
	test.That(t, g.Ready(now.Add(time.Millisecond)), test.ShouldBeTrue)
}

func TestGateCooldown(t *testing.T) {
	g := NewGate(testCatalog(t), 3*time.Second, PolicyAll, testEntry())
	start := time.Unix(100, 0)

	test.That(t, len(g.Evaluate(start, predictions("Loa", 0.9))), test.ShouldEqual, 1)
	test.That(t, g.Ready(start.Add(2999*time.Millisecond)), test.ShouldBeFalse)
	test.That(t, g.Evaluate(start.Add(time.Second), predictions("Loa", 0.9)), test.ShouldBeEmpty)

	test.That(t, g.Ready(start.Add(3*time.Second)), test.ShouldBeTrue)
	test.That(t, len(g.Evaluate(start.Add(3*time.Second), predictions("Loa", 0.9))), test.ShouldEqual, 1)
}

func TestGateWithoutCooldown(t *testing.T) {
	g := NewGate(testCatalog(t), 0, PolicyAll, testEntry())
	now := time.Unix(100, 0)

	test.That(t, len(g.Evaluate(now, predictions("Loa", 0.9))), test.ShouldEqual, 1)
	test.That(t, len(g.Evaluate(now, predictions("Loa", 0.9))), test.ShouldEqual, 1)
}

func TestGatePolicies(t *testing.T) {
	result := predictions("Bút", 0.85, "Loa", 0.95, "Quạt", 0.5)

	all := NewGate(testCatalog(t), 0, PolicyAll, testEntry())
	matches := all.Evaluate(time.Unix(0, 0), result)
	test.That(t, len(matches), test.ShouldEqual, 2)
	test.That(t, matches[0].Item.Name, test.ShouldEqual, "Bút")
	test.That(t, matches[1].Item.Name, test.ShouldEqual, "Loa")

	best := NewGate(testCatalog(t), 0, PolicyBest, testEntry())
	matches = best.Evaluate(time.Unix(0, 0), result)
	test.That(t, len(matches), test.ShouldEqual, 1)
	test.That(t, matches[0].Item.Name, test.ShouldEqual, "Loa")
}

func TestParseAcceptPolicy(t *testing.T) {
	p, err := ParseAcceptPolicy("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p, test.ShouldEqual, PolicyAll)

	p, err = ParseAcceptPolicy("best")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p, test.ShouldEqual, PolicyBest)

	_, err = ParseAcceptPolicy("first")
	test.That(t, err, test.ShouldNotBeNil)
}
