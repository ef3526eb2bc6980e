package streamer

import "encoding/json"

// Update object kinds. The first group targets a project's subscriber
// set; the second targets every live connection of a single user.
const (
	ObjectProject = "project"
	ObjectTasks   = "tasks"
	ObjectTask    = "task"
	ObjectDetails = "details"

	ObjectProfile  = "profile"
	ObjectContacts = "contacts"
	ObjectProjects = "projects"
)

// Update is one pending change notification. It lives only in the
// hub's queue between enqueue and the next flush; there is no
// persistence or replay for connections that are not subscribed at
// flush time.
type Update struct {
	Type    string `json:"type"`
	Object  string `json:"object"`
	Project string `json:"project,omitempty"`
	User    string `json:"user,omitempty"`

	// By is the acting user; MacID is an opaque suffix of the actor's
	// credential id, which clients use to suppress echo of their own
	// changes.
	By    string `json:"by,omitempty"`
	MacID string `json:"macId,omitempty"`
}

// forUser reports whether the update fans out by user rather than by
// project subscriber set.
func (u Update) forUser() bool {
	switch u.Object {
	case ObjectProfile, ObjectContacts, ObjectProjects:
		return true
	}
	return false
}

// inbound is a client→hub message read off the stream channel.
type inbound struct {
	Type          string `json:"type"`
	Authorization string `json:"authorization"`
}

// Hub→client control messages.

type helloMessage struct {
	Type    string `json:"type"`
	Session string `json:"session"`
}

type initializeReply struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	User   string `json:"user,omitempty"`
	Error  string `json:"error,omitempty"`
}

type subscriptionEvent struct {
	Type    string `json:"type"`
	Project string `json:"project"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// encode marshals a control message, panicking on failure. The message
// types above contain only strings, so marshalling cannot fail.
func encode(v any) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return payload
}
