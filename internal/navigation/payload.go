package navigation

// Payload is the per-screen navigation data. The set of implementations is closed.
type Payload interface {
	target() Screen
}

// ListingPayload opens a listing.
type ListingPayload struct {
	ListingID string `json:"listingId"`
}

// EditPayload opens the editor for a listing.
type EditPayload struct {
	ListingID string `json:"listingId"`
}

// ChatPayload opens chat, optionally on one conversation.
type ChatPayload struct {
	ConversationID string `json:"conversationId,omitempty"`
}

// TaskPayload opens a task.
type TaskPayload struct {
	TaskID string `json:"taskId"`
}

// WishPayload opens a wish.
type WishPayload struct {
	WishID string `json:"wishId"`
}

func (ListingPayload) target() Screen { return ScreenListing }
func (EditPayload) target() Screen    { return ScreenEdit }
func (ChatPayload) target() Screen    { return ScreenChat }
func (TaskPayload) target() Screen    { return ScreenTaskDetail }
func (WishPayload) target() Screen    { return ScreenWishDetail }

func listingID(p Payload) string {
	switch v := p.(type) {
	case ListingPayload:
		return v.ListingID
	case EditPayload:
		return v.ListingID
	}
	return ""
}

// HistoryState is the state object stored with a history entry. It holds enough to rebuild the screen.
type HistoryState struct {
	Screen         Screen `json:"screen,omitempty"`
	ListingID      string `json:"listingId,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	TaskID         string `json:"taskId,omitempty"`
	WishID         string `json:"wishId,omitempty"`
	Sentinel       bool   `json:"sentinel,omitempty"`
}

func stateFor(screen Screen, payload Payload) HistoryState {
	st := HistoryState{Screen: screen}
	switch v := payload.(type) {
	case ListingPayload:
		st.ListingID = v.ListingID
	case EditPayload:
		st.ListingID = v.ListingID
	case ChatPayload:
		st.ConversationID = v.ConversationID
	case TaskPayload:
		st.TaskID = v.TaskID
	case WishPayload:
		st.WishID = v.WishID
	case nil:
	}
	return st
}

// payloadFor rebuilds the payload of screen from a history state.
func payloadFor(screen Screen, st HistoryState) Payload {
	switch screen {
	case ScreenListing:
		return ListingPayload{ListingID: st.ListingID}
	case ScreenEdit:
		return EditPayload{ListingID: st.ListingID}
	case ScreenChat:
		if st.ConversationID == "" {
			return nil
		}
		return ChatPayload{ConversationID: st.ConversationID}
	case ScreenTaskDetail:
		return TaskPayload{TaskID: st.TaskID}
	case ScreenWishDetail:
		return WishPayload{WishID: st.WishID}
	}
	return nil
}

// PayloadFromState is the exported form of payloadFor for transports decoding client requests.
func PayloadFromState(st HistoryState) Payload {
	return payloadFor(st.Screen, st)
}

// entityID returns the id an id-bearing screen needs and whether the screen needs one.
func entityID(screen Screen, payload Payload) (id string, required bool) {
	switch screen {
	case ScreenListing, ScreenEdit:
		return listingID(payload), true
	case ScreenTaskDetail:
		if v, ok := payload.(TaskPayload); ok {
			return v.TaskID, true
		}
		return "", true
	case ScreenWishDetail:
		if v, ok := payload.(WishPayload); ok {
			return v.WishID, true
		}
		return "", true
	case ScreenChat:
		if v, ok := payload.(ChatPayload); ok && v.ConversationID != "" {
			return v.ConversationID, true
		}
	}
	return "", false
}
