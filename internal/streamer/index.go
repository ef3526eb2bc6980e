package streamer

// SubscriptionIndex holds three cross-referenced maps binding
// connections, users, and projects. Every mutation keeps them mutually
// consistent: p ∈ byConnection[c] exactly when c ∈ byProject[p], and a
// connection id appears in at most one byUser set. Not safe for
// concurrent use; the hub serializes all access.
type SubscriptionIndex struct {
	byProject    map[string]map[string]struct{} // projectID -> connection ids
	byUser       map[string]map[string]struct{} // userID -> connection ids
	byConnection map[string]map[string]struct{} // connectionID -> project ids

	// userOf records which byUser set a connection belongs to, so
	// DropAll can clear it without scanning every user.
	userOf map[string]string
}

// NewSubscriptionIndex creates an empty index.
func NewSubscriptionIndex() *SubscriptionIndex {
	return &SubscriptionIndex{
		byProject:    make(map[string]map[string]struct{}),
		byUser:       make(map[string]map[string]struct{}),
		byConnection: make(map[string]map[string]struct{}),
		userOf:       make(map[string]string),
	}
}

// AddSubscription inserts the (connection, project) pair into both
// sides of the index, creating the sets lazily.
func (x *SubscriptionIndex) AddSubscription(connectionID, projectID string) {
	if x.byProject[projectID] == nil {
		x.byProject[projectID] = make(map[string]struct{})
	}
	x.byProject[projectID][connectionID] = struct{}{}

	if x.byConnection[connectionID] == nil {
		x.byConnection[connectionID] = make(map[string]struct{})
	}
	x.byConnection[connectionID][projectID] = struct{}{}
}

// RemoveSubscription removes the pair from both sides, deleting empty
// sets. It reports whether the subscription existed.
func (x *SubscriptionIndex) RemoveSubscription(connectionID, projectID string) bool {
	subs, ok := x.byProject[projectID]
	if !ok {
		return false
	}
	if _, ok := subs[connectionID]; !ok {
		return false
	}

	delete(subs, connectionID)
	if len(subs) == 0 {
		delete(x.byProject, projectID)
	}

	if projects, ok := x.byConnection[connectionID]; ok {
		delete(projects, projectID)
		if len(projects) == 0 {
			delete(x.byConnection, connectionID)
		}
	}
	return true
}

// BindUser records the connection under the user's set. A connection
// already bound to another user is moved, keeping the at-most-one
// invariant.
func (x *SubscriptionIndex) BindUser(userID, connectionID string) {
	if prev, ok := x.userOf[connectionID]; ok && prev != userID {
		x.UnbindUser(prev, connectionID)
	}
	if x.byUser[userID] == nil {
		x.byUser[userID] = make(map[string]struct{})
	}
	x.byUser[userID][connectionID] = struct{}{}
	x.userOf[connectionID] = userID
}

// UnbindUser removes the connection from the user's set, deleting the
// set when it empties.
func (x *SubscriptionIndex) UnbindUser(userID, connectionID string) {
	if conns, ok := x.byUser[userID]; ok {
		delete(conns, connectionID)
		if len(conns) == 0 {
			delete(x.byUser, userID)
		}
	}
	if x.userOf[connectionID] == userID {
		delete(x.userOf, connectionID)
	}
}

// SubscribersOfProject returns a copy of the project's subscriber set.
func (x *SubscriptionIndex) SubscribersOfProject(projectID string) []string {
	return setToSlice(x.byProject[projectID])
}

// ConnectionsOfUser returns a copy of the user's live connection set.
func (x *SubscriptionIndex) ConnectionsOfUser(userID string) []string {
	return setToSlice(x.byUser[userID])
}

// ProjectsOfConnection returns a copy of the connection's project set.
func (x *SubscriptionIndex) ProjectsOfConnection(connectionID string) []string {
	return setToSlice(x.byConnection[connectionID])
}

// HasSubscription reports whether the pair is present.
func (x *SubscriptionIndex) HasSubscription(connectionID, projectID string) bool {
	_, ok := x.byProject[projectID][connectionID]
	return ok
}

// DropAll removes every subscription held by the connection and clears
// its byUser membership. Idempotent: dropping an absent connection is
// a no-op.
func (x *SubscriptionIndex) DropAll(connectionID string) {
	for projectID := range x.byConnection[connectionID] {
		subs := x.byProject[projectID]
		delete(subs, connectionID)
		if len(subs) == 0 {
			delete(x.byProject, projectID)
		}
	}
	delete(x.byConnection, connectionID)

	if userID, ok := x.userOf[connectionID]; ok {
		x.UnbindUser(userID, connectionID)
	}
}

func setToSlice(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
