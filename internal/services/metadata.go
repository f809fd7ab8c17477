package services

import (
	"regexp"
	"strings"
)

const (
	DefaultUploaderName = "Anonim"
	DefaultEventName    = "Özel Etkinlik"
	DefaultMessage      = "Mesaj yok"
)

// AssetMeta is the guest-supplied metadata carried in a file's description:
//
//	Misafir: <name>
//	Etkinlik: <event>
//	Mesaj: <message>
type AssetMeta struct {
	UploaderName string `json:"uploaderName"`
	EventName    string `json:"eventName"`
	Message      string `json:"message"`
}

var (
	guestLine   = regexp.MustCompile(`(?m)^Misafir: (.*)$`)
	eventLine   = regexp.MustCompile(`(?m)^Etkinlik: (.*)$`)
	messageLine = regexp.MustCompile(`(?ms)^Mesaj: (.*)\z`)
)

// ComposeDescription renders meta in the three-line format. Name and event
// are flattened to one line so only the message may span lines.
func ComposeDescription(meta AssetMeta) string {
	return "Misafir: " + orDefault(singleLine(meta.UploaderName), DefaultUploaderName) +
		"\nEtkinlik: " + orDefault(singleLine(meta.EventName), DefaultEventName) +
		"\nMesaj: " + orDefault(strings.TrimSpace(meta.Message), DefaultMessage)
}

// ParseDescription recovers meta from a description. Missing or malformed
// fields fall back to their defaults.
func ParseDescription(description string) AssetMeta {
	description = strings.ReplaceAll(description, "\r\n", "\n")
	return AssetMeta{
		UploaderName: orDefault(firstGroup(guestLine, description), DefaultUploaderName),
		EventName:    orDefault(firstGroup(eventLine, description), DefaultEventName),
		Message:      orDefault(firstGroup(messageLine, description), DefaultMessage),
	}
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
