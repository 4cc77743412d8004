package fuec

import (
	"bytes"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"fleetops/internal/apperrors"
	"fleetops/internal/models"
)

// File is a generated attachment.
type File struct {
	Name        string
	ContentType string
	Content     []byte
}

type Generator struct {
	renderer Renderer
}

func NewGenerator(r Renderer) *Generator {
	if r == nil {
		r = PDFRenderer{}
	}
	return &Generator{renderer: r}
}

// PDF renders the manifest for svc. Renderer failures are reported as
// ErrRenderFailure.
func (g *Generator) PDF(tenant models.Tenant, svc models.Service, issuedOn time.Time) (*File, error) {
	content, err := g.renderer.Render(Build(tenant, svc, issuedOn))
	if err != nil {
		logrus.WithError(err).WithField("service_id", svc.ID).Error("fuec render failed")
		return nil, fmt.Errorf("%w: %v", apperrors.ErrRenderFailure, err)
	}
	return &File{Name: Filename(svc), ContentType: "application/pdf", Content: content}, nil
}

// HTML renders the printable preview of the same manifest.
func (g *Generator) HTML(tenant models.Tenant, svc models.Service, issuedOn time.Time) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, Build(tenant, svc, issuedOn)); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrRenderFailure, err)
	}
	return buf.Bytes(), nil
}
