package constant

const (
	QueueStreamName = "booth_queue_stream"
)

const (
	AllWildcard      = "events.>"
	EmailWildcard    = "events.email.>"
	ActivityWildcard = "events.activity.>"

	SubjectSendEmail      = "events.email.send"
	SubjectRecordActivity = "events.activity.record"
)
