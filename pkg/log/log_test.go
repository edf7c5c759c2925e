package log

import (
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.viam.com/test"
)

func TestErrorWithTraceID(t *testing.T) {
	out := logrus.StandardLogger().Out
	logrus.SetOutput(io.Discard)
	defer logrus.SetOutput(out)

	t.Run("reuses the request id", func(t *testing.T) {
		traceID := ErrorWithTraceID(Fields{"request_id": "01JREQ"}, "boom")
		test.That(t, traceID, test.ShouldEqual, "01JREQ")
	})

	t.Run("generates one for unknown requests", func(t *testing.T) {
		fields := Fields{"request_id": "unknown"}
		traceID := ErrorWithTraceID(fields, "boom")

		_, err := uuid.Parse(traceID)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, fields["trace_id"], test.ShouldEqual, traceID)
	})

	t.Run("accepts nil fields", func(t *testing.T) {
		traceID := ErrorWithTraceID(nil, "boom")
		test.That(t, traceID, test.ShouldNotBeEmpty)
	})
}
