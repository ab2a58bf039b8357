package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"coderanker/pkg/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Logger is what the services write to.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// FileLogger keeps the process log on a temporary file so it can be shipped to the bucket.
type FileLogger struct {
	mu       sync.Mutex
	logFile  *os.File
	filePath string
	mirror   io.Writer
}

// CreateLogger creates the log instance with a temporary file, mirrored to stdout.
func CreateLogger() (*FileLogger, error) {
	f, err := os.CreateTemp("", "coderanker-*.log")
	if err != nil {
		return nil, err
	}

	return &FileLogger{
		logFile:  f,
		filePath: f.Name(),
		mirror:   os.Stdout,
	}, nil
}

// Infof logs a simple info.
func (l *FileLogger) Infof(format string, args ...any) {
	l.write("[INFO]", format, args...)
}

// Warnf logs something that went wrong but didn't stop the operation.
func (l *FileLogger) Warnf(format string, args ...any) {
	l.write("[WARN]", format, args...)
}

// Errorf logs an error.
func (l *FileLogger) Errorf(format string, args ...any) {
	l.write("[ERROR]", format, args...)
}

// Path returns the location of the log file.
func (l *FileLogger) Path() string {
	return l.filePath
}

// Write something to the logger.
func (l *FileLogger) write(infoType string, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().UTC().Format("2006-01-02 15:04:05")
	line := fmt.Sprintf("%-8s %s %s\n", infoType, timestamp, fmt.Sprintf(format, args...))

	l.logFile.WriteString(line)
	if l.mirror != nil {
		io.WriteString(l.mirror, line)
	}
}

// CleanFile cleans the file contents.
func (l *FileLogger) CleanFile() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logFile.Truncate(0)
	l.logFile.Seek(0, 0)
}

// Close removes the temporary file.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.logFile.Close(); err != nil {
		return err
	}
	return os.Remove(l.filePath)
}

// UploadToS3Bucket uploads the current log file to the log bucket and cleans it.
func (l *FileLogger) UploadToS3Bucket(ctx context.Context, bucket config.BucketConfig, objectKey string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.logFile.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to rewind file: %w", err)
	}

	_, err := NewS3Client(bucket).PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket.LogBucket),
		Key:    aws.String(objectKey),
		Body:   l.logFile,
		ACL:    types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to S3 bucket: %w", objectKey, err)
	}

	// Clean the file after sending.
	l.logFile.Truncate(0)
	l.logFile.Seek(0, 0)

	return nil
}

// NewS3Client creates a client for the S3 compatible log bucket.
func NewS3Client(bucket config.BucketConfig) *s3.Client {
	cfg := aws.Config{
		Region: bucket.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(
				bucket.AccessKey,
				bucket.AccessSecret,
				"",
			),
		),
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if bucket.Endpoint != "" {
			o.BaseEndpoint = aws.String(bucket.Endpoint)
			o.UsePathStyle = true
		}
	})
}

// Nop discards every log line.
type Nop struct{}

func (Nop) Infof(string, ...any)  {}
func (Nop) Warnf(string, ...any)  {}
func (Nop) Errorf(string, ...any) {}
