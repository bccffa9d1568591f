package audit

import "context"

// Recorder is what launch and publish write to
type Recorder interface {
	RecordLaunch(ctx context.Context, rec LaunchRecord) error
	RecordPublish(ctx context.Context, rec PublishRecord) error
}

// NopRecorder discards everything; used when DATABASE_URL is empty
type NopRecorder struct{}

func (NopRecorder) RecordLaunch(context.Context, LaunchRecord) error   { return nil }
func (NopRecorder) RecordPublish(context.Context, PublishRecord) error { return nil }

var (
	_ Recorder = (*Repository)(nil)
	_ Recorder = NopRecorder{}
)
