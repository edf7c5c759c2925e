package s3

import (
	"ScanCheckout/internal/entity"
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// ItfS3 stores the frames that led to a recognition so a receipt line can be
// audited later.
type ItfS3 interface {
	Submit(sessionID string, frame entity.Frame, item entity.CatalogItem) string
	PresignUrl(key string) (string, error)
	Close() error
}

type upload struct {
	key   string
	frame entity.Frame
}

type s3Client struct {
	client     *s3.S3
	uploader   s3manageriface.UploaderAPI
	bucketName string
	prefix     string
	log        *logrus.Logger

	// mu guards closed and sends on queue
	mu      sync.Mutex
	closed  bool
	queue   chan upload
	wg      sync.WaitGroup
	timeout time.Duration
}

func New(log *logrus.Logger) (ItfS3, error) {
	sess, err := newSession()
	if err != nil {
		return nil, err
	}

	bucket := os.Getenv("AWS_BUCKET_NAME")
	if bucket == "" {
		return nil, fmt.Errorf("AWS_BUCKET_NAME not set")
	}

	return newClient(s3.New(sess), s3manager.NewUploader(sess), bucket, log, 2, 64), nil
}

func newClient(client *s3.S3, uploader s3manageriface.UploaderAPI, bucket string, log *logrus.Logger, workers, queueSize int) *s3Client {
	prefix := os.Getenv("AWS_EVIDENCE_PREFIX")
	if prefix == "" {
		prefix = "evidence"
	}

	c := &s3Client{
		client:     client,
		uploader:   uploader,
		bucketName: bucket,
		prefix:     strings.Trim(prefix, "/"),
		log:        log,
		queue:      make(chan upload, queueSize),
		timeout:    30 * time.Second,
	}

	for i := 0; i < workers; i++ {
		c.wg.Add(1)
		go c.worker()
	}
	return c
}

// Submit queues the frame for upload and returns its key immediately. When the
// queue is full or the client is closed the frame is dropped and an empty key
// is returned.
func (s *s3Client) Submit(sessionID string, frame entity.Frame, item entity.CatalogItem) string {
	key := evidenceKey(s.prefix, sessionID, item.Name, frame.ContentType)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.log.WithField("session_id", sessionID).Warn("[s3] evidence client closed, dropping frame")
		return ""
	}

	select {
	case s.queue <- upload{key: key, frame: frame}:
		return key
	default:
		s.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"item":       item.Name,
		}).Warn("[s3] evidence queue full, dropping frame")
		return ""
	}
}

func (s *s3Client) worker() {
	defer s.wg.Done()

	for u := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket:      aws.String(s.bucketName),
			Key:         aws.String(u.key),
			Body:        bytes.NewReader(u.frame.Data),
			ContentType: aws.String(u.frame.ContentType),
		})
		cancel()

		if err != nil {
			s.log.WithFields(logrus.Fields{
				"key":   u.key,
				"error": err.Error(),
			}).Error("[s3] failed to upload evidence")
		}
	}
}

func (s *s3Client) PresignUrl(key string) (string, error) {
	_, err := s.client.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("file does not exist: %w", err)
	}

	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})

	urlStr, err := req.Presign(15 * time.Minute)
	if err != nil {
		return "", err
	}

	return urlStr, nil
}

// Close drains queued uploads.
func (s *s3Client) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

func newSession() (*session.Session, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(os.Getenv("AWS_REGION")),
		Credentials: credentials.NewStaticCredentials(
			os.Getenv("AWS_ACCESS_KEY_ID"),
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			"",
		),
	})

	if err != nil {
		return nil, err
	}

	return sess, nil
}

func evidenceKey(prefix, sessionID, itemName, contentType string) string {
	ext := "jpg"
	if contentType == "image/png" {
		ext = "png"
	}

	name := strings.Map(func(r rune) rune {
		if r == ' ' || r == '/' {
			return '-'
		}
		return r
	}, itemName)

	return fmt.Sprintf("%s/%s/%s-%s.%s", prefix, sessionID, ulid.Make().String(), name, ext)
}
