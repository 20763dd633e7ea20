package statez

import "github.com/zoobzio/capitan"

// Field keys for statez events.
var (
	// KeyManager is the id of the Manager that emitted the event.
	KeyManager = capitan.NewStringKey("manager")

	// KeyName is the name of the state the event concerns.
	KeyName = capitan.NewStringKey("name")

	// KeyID is the registration id of the state.
	KeyID = capitan.NewIntKey("id")

	// KeyLevel is the dependency level of a state.
	KeyLevel = capitan.NewIntKey("level")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyDelay is the configured coalescing window.
	KeyDelay = capitan.NewDurationKey("delay")

	// KeyDuration is how long a flush took.
	KeyDuration = capitan.NewDurationKey("duration")

	// KeyChanged is the number of cells changed by a flush.
	KeyChanged = capitan.NewIntKey("changed")

	// KeyPending is the number of pending writes.
	KeyPending = capitan.NewIntKey("pending")

	// KeyNames is a comma separated list of changed state names.
	KeyNames = capitan.NewStringKey("names")

	// KeyCodec is the content type of a source codec.
	KeyCodec = capitan.NewStringKey("codec")
)
