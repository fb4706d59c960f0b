package preview

// Backend is a native playback surface for one video media item. The
// controller commands backends but never owns their lifetime; handles are
// registered when a surface becomes available and deregistered on teardown.
//
// A backend's reported position and paused flag are advisory. They become
// authoritative only while that backend owns the current segment during
// playback, and then only through the timeUpdate notification path.
type Backend interface {
	// Play starts or resumes native playback. Platform restrictions may
	// reject the request; the controller swallows the error.
	Play() error
	// Pause halts native playback.
	Pause()
	// Seek moves the decode position, in seconds local to the backend's
	// own media (logical time minus the owning segment's start).
	Seek(localTime float64)
	// SetActive controls visibility and audibility. Exactly one backend
	// is active at a time.
	SetActive(active bool)
	// Position returns the backend's reported decode position in seconds.
	Position() float64
	// Paused returns the backend's reported paused flag.
	Paused() bool
}

// EventSink receives backend notifications. The Controller implements it;
// backends (and the HTTP event routes fed by a remote frontend) call into it.
type EventSink interface {
	HandleTimeUpdate(mediaID string, localTime float64)
	HandleEnded(mediaID string)
}
