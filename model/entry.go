package model

import "time"

// Entry is a journal entry as seen by the display layer.
// ObjectKey is empty when no image is attached; URL is empty when the image is not currently displayable.
// The cache only ever writes URL.
type Entry struct {
	ID        string    `json:"id"`
	ParkID    string    `json:"park_id"`
	VisitDate string    `json:"visit_date"`
	Notes     string    `json:"notes,omitempty"`
	ObjectKey string    `json:"image_path,omitempty"`
	URL       string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// HasObjectKey reports whether the entry carries an image.
func (e Entry) HasObjectKey() bool {
	return e.ObjectKey != ""
}

// URLUpdate is a visible URL to be written into an entry.
// Seq is the issuance sequence of the signed URL; an update older than the displayed one is dropped.
type URLUpdate struct {
	URL string
	Seq uint64
}
