package service

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"kanban-board-api/internal/domain"
	"kanban-board-api/internal/dto"
	"kanban-board-api/internal/response"
)

// normalizeLabels trims, drops empties and deduplicates tags or categories.
// Labels are a set; the stored order is sorted.
func normalizeLabels(in []string) datatypes.JSONSlice[string] {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, l := range in {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	sort.Strings(out)
	return datatypes.JSONSlice[string](out)
}

func parsePriority(raw string) (domain.Priority, error) {
	if strings.TrimSpace(raw) == "" {
		return domain.PriorityMedium, nil
	}
	p, ok := domain.ParsePriority(raw)
	if !ok {
		return "", response.NewValidationError("Invalid priority", fmt.Sprintf("%q is not one of low, medium, high", raw))
	}
	return p, nil
}

func buildChecklist(items []dto.ChecklistItemRequest) (datatypes.JSONSlice[domain.ChecklistItem], error) {
	out := make([]domain.ChecklistItem, 0, len(items))
	seen := make(map[uuid.UUID]bool, len(items))
	for i, item := range items {
		text := strings.TrimSpace(item.Text)
		if text == "" {
			return nil, response.NewValidationError("Checklist item text is required", fmt.Sprintf("checklist[%d]", i))
		}
		id := uuid.New()
		if item.ID != nil && *item.ID != uuid.Nil {
			id = *item.ID
		}
		if seen[id] {
			return nil, response.NewValidationError("Duplicate checklist item id", id.String())
		}
		seen[id] = true
		out = append(out, domain.ChecklistItem{ID: id, Text: text, Done: item.Done})
	}
	return datatypes.JSONSlice[domain.ChecklistItem](out), nil
}

func buildAttachments(items []dto.AttachmentRequest) (datatypes.JSONSlice[domain.Attachment], error) {
	out := make([]domain.Attachment, 0, len(items))
	for i, item := range items {
		where := fmt.Sprintf("attachments[%d]", i)
		kind := domain.AttachmentKind(strings.ToLower(item.Kind))
		if !kind.IsValid() {
			return nil, response.NewValidationError("Invalid attachment kind", where)
		}
		if strings.TrimSpace(item.Name) == "" {
			return nil, response.NewValidationError("Attachment name is required", where)
		}

		a := domain.Attachment{
			ID:       uuid.New(),
			Kind:     kind,
			Name:     strings.TrimSpace(item.Name),
			MimeType: item.MimeType,
			Size:     item.Size,
		}
		if item.ID != nil && *item.ID != uuid.Nil {
			a.ID = *item.ID
		}

		switch kind {
		case domain.AttachmentKindLink:
			u, err := url.Parse(item.URL)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return nil, response.NewValidationError("Link attachments need an absolute http(s) URL", where)
			}
			a.URL = u.String()
		default:
			if strings.TrimSpace(item.BlobRef) == "" {
				return nil, response.NewValidationError("File and photo attachments need a blobRef", where)
			}
			a.BlobRef = strings.TrimSpace(item.BlobRef)
		}
		out = append(out, a)
	}
	return datatypes.JSONSlice[domain.Attachment](out), nil
}

// orphanedBlobs returns refs present in before but not in after
func orphanedBlobs(before, after []string) []string {
	keep := make(map[string]bool, len(after))
	for _, r := range after {
		keep[r] = true
	}
	var gone []string
	for _, r := range before {
		if !keep[r] {
			gone = append(gone, r)
		}
	}
	return gone
}

func cardAudience(c *domain.Card) []uuid.UUID {
	if c.AssigneeID == nil {
		return nil
	}
	return []uuid.UUID{*c.AssigneeID}
}
