package models

// WebhookPayload is the part of a WhatsApp Cloud API callback that carries
// inbound messages. Other fields of the callback are ignored.
type WebhookPayload struct {
	Entry []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Value WebhookValue `json:"value"`
}

type WebhookValue struct {
	Messages []InboundMessage `json:"messages"`
}

// InboundMessage is one message sent to the business number. Commands arrive
// as text or as the id of a pressed button or list item.
type InboundMessage struct {
	From        string              `json:"from"`
	ID          string              `json:"id"`
	Text        *TextContent        `json:"text,omitempty"`
	Interactive *InteractiveContent `json:"interactive,omitempty"`
}

type TextContent struct {
	Body string `json:"body"`
}

type InteractiveContent struct {
	ButtonReply *Reply `json:"button_reply,omitempty"`
	ListReply   *Reply `json:"list_reply,omitempty"`
}

// Reply identifies the pressed button or selected list item.
type Reply struct {
	ID string `json:"id"`
}
