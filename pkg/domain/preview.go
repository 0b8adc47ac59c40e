package domain

const (
	// PreviewLimit is the number of characters kept from the first user message.
	PreviewLimit = 50
	// DefaultPreview is shown for chats without any user message.
	DefaultPreview = "New chat"
)

// Preview derives the chat list preview from the chat's first user message.
// An empty text means the chat has no user message yet.
func Preview(firstUserText string) string {
	if firstUserText == "" {
		return DefaultPreview
	}
	runes := []rune(firstUserText)
	if len(runes) <= PreviewLimit {
		return firstUserText
	}
	return string(runes[:PreviewLimit]) + "…"
}
