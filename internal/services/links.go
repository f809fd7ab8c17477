package services

import (
	"net/url"
	"strings"

	"github.com/metaa35/qrwedding-sub000/internal/models"
	"github.com/metaa35/qrwedding-sub000/pkg/linktoken"
)

// LinkBuilder builds public view links for stored assets.
type LinkBuilder struct {
	PublicURL string
}

func NewLinkBuilder(publicURL string) *LinkBuilder {
	return &LinkBuilder{PublicURL: strings.TrimRight(publicURL, "/")}
}

// ViewLink points at the public asset endpoint. Unshared assets carry a
// signed, expiring token.
func (l *LinkBuilder) ViewLink(node *models.DriveNode) string {
	base := l.PublicURL + "/api/public/assets/" + node.ID.String()
	if node.Shared {
		return base
	}
	return base + "?token=" + url.QueryEscape(linktoken.Generate(node.ID.String()))
}
