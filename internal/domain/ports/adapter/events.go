package adapter

// WebhookDecoder turns one platform's raw webhook payload into a normalized
// event from the model package (*model.NoteEvent, *model.MergeRequestEvent,
// *model.PipelineEvent or *model.IssueEvent).
//
// eventType is the raw value of the platform's event header, matched exactly
// and case-sensitively. Decoders return (nil, nil) for event types they do
// not handle; that is not an error.
type WebhookDecoder interface {
	Decode(eventType string, payload []byte) (any, error)
}
