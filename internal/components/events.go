package components

// Events emitted through HX-Trigger. Components subscribe with
// OnEvent in their markup.
const (
	EventCompanyCreated = "company:created"
	EventCompanyUpdated = "company:updated"
	EventContactChanged = "contact:changed"
	EventNoteCreated    = "note:created"
	EventNoteUpdated    = "note:updated"
	EventNoteDeleted    = "note:deleted"
)
