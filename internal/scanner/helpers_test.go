package scanner

import (
	"ScanCheckout/internal/catalog"
	"ScanCheckout/internal/entity"
	"ScanCheckout/pkg/inference"
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/jpeg"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"go.viam.com/test"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Default()
	test.That(t, err, test.ShouldBeNil)
	return c
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func testEntry() *logrus.Entry {
	return logrus.NewEntry(testLogger())
}

func predictions(pairs ...any) entity.ClassificationResult {
	var out entity.ClassificationResult
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, entity.Prediction{Label: pairs[i].(string), Probability: pairs[i+1].(float64)})
	}
	return out
}

// fakeModel answers Classify with classify, or with result when classify is nil.
type fakeModel struct {
	labels   []string
	result   entity.ClassificationResult
	classify func(ctx context.Context, frame entity.Frame) (entity.ClassificationResult, error)

	calls  atomic.Int64
	closed atomic.Bool
}

func (f *fakeModel) TotalClasses() int { return len(f.labels) }

func (f *fakeModel) Labels() []string { return f.labels }

func (f *fakeModel) Classify(ctx context.Context, frame entity.Frame) (entity.ClassificationResult, error) {
	f.calls.Add(1)
	if f.classify != nil {
		return f.classify(ctx, frame)
	}
	return f.result, nil
}

func (f *fakeModel) Close() error {
	f.closed.Store(true)
	return nil
}

func loaderFor(m inference.Model) inference.Loader {
	return inference.LoaderFunc(func(context.Context) (inference.Model, error) {
		return m, nil
	})
}

// bmpFrame is a 2x2 24-bit bitmap. It sniffs as an image but has no decoder
// registered.
func bmpFrame() entity.Frame {
	const header = 54
	data := make([]byte, header+16)
	copy(data, "BM")
	binary.LittleEndian.PutUint32(data[2:], uint32(len(data)))
	binary.LittleEndian.PutUint32(data[10:], header)
	binary.LittleEndian.PutUint32(data[14:], 40)
	binary.LittleEndian.PutUint32(data[18:], 2)
	binary.LittleEndian.PutUint32(data[22:], 2)
	binary.LittleEndian.PutUint16(data[26:], 1)
	binary.LittleEndian.PutUint16(data[28:], 24)
	return entity.Frame{Data: data, ContentType: "image/bmp"}
}

func jpegFrame(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	test.That(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 320, 240)), nil), test.ShouldBeNil)
	return buf.Bytes()
}

type fakeEvidence struct {
	mu    sync.Mutex
	items []string
}

func (f *fakeEvidence) Submit(sessionID string, _ entity.Frame, item entity.CatalogItem) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, item.Name)
	return sessionID + "/" + item.Name
}

type memoryStore struct {
	mu    sync.Mutex
	snaps map[string]entity.SessionSnapshot
}

func newMemoryStore() *memoryStore {
	return &memoryStore{snaps: make(map[string]entity.SessionSnapshot)}
}

func (s *memoryStore) SaveSnapshot(_ context.Context, snap entity.SessionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.ID] = snap
	return nil
}

func (s *memoryStore) GetSnapshot(_ context.Context, id string) (entity.SessionSnapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[id]
	return snap, ok, nil
}
