package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"inspection-portal/internal/models"
	"inspection-portal/internal/repository"
	"inspection-portal/internal/search"
)

// PanelHandler is the admin record browser: one list endpoint per entity
// with ?q= search and ?filter= narrowing
type PanelHandler struct {
	store repository.Store
}

// NewPanelHandler creates a new record browser
func NewPanelHandler(store repository.Store) *PanelHandler {
	return &PanelHandler{store: store}
}

type panelQuery struct {
	q      string
	filter string
	limit  int
}

type panelLister func(ctx context.Context, store repository.Store, pq panelQuery) (interface{}, int, error)

var panelEntities = map[string]panelLister{
	"users":      listUsers,
	"properties": listProperties,
	"requests":   listRequests,
	"messages":   listMessages,
	"payments":   listPayments,
	"complaints": listComplaints,
	"deletions":  listDeletions,
}

// PanelEntities returns the names accepted by List
func PanelEntities() []string {
	return []string{"users", "properties", "requests", "messages", "payments", "complaints", "deletions"}
}

// List returns the records of one entity
func (h *PanelHandler) List(c *gin.Context) {
	entity := c.Param("entity")
	lister, ok := panelEntities[entity]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":    "Unknown entity",
			"entities": PanelEntities(),
		})
		return
	}

	pq := panelQuery{
		q:      strings.TrimSpace(c.Query("q")),
		filter: strings.ToLower(strings.TrimSpace(c.Query("filter"))),
		limit:  queryLimit(c, 100),
	}
	rows, count, err := lister(c.Request.Context(), h.store, pq)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entity": entity,
		"q":      pq.q,
		"filter": pq.filter,
		"rows":   rows,
		"count":  count,
	})
}

// filter: owner, inspector, admin, pending, banned
func listUsers(ctx context.Context, store repository.Store, pq panelQuery) (interface{}, int, error) {
	f := repository.UserFilter{Query: pq.q, Limit: pq.limit}
	yes, no := true, false
	switch pq.filter {
	case "pending":
		f.Role = models.RoleInspector
		f.Approved = &no
	case "banned":
		f.Banned = &yes
	default:
		if role, ok := models.ParseRole(pq.filter); ok {
			f.Role = role
		}
	}
	users, err := store.Users().List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	docs := make([]search.UserDocument, len(users))
	for i := range users {
		docs[i] = search.NewUserDocument(&users[i])
	}
	return docs, len(docs), nil
}

func listProperties(ctx context.Context, store repository.Store, pq panelQuery) (interface{}, int, error) {
	props, err := store.Properties().List(ctx, pq.q, pq.limit)
	return props, len(props), err
}

// filter: comma-separated statuses
func listRequests(ctx context.Context, store repository.Store, pq panelQuery) (interface{}, int, error) {
	reqs, err := store.Requests().List(ctx, repository.RequestFilter{
		Statuses: search.ParseStatuses(pq.filter),
		Query:    pq.q,
		Limit:    pq.limit,
	})
	return reqs, len(reqs), err
}

type messageRow struct {
	ID          uint      `json:"id"`
	SenderID    uint      `json:"sender_id"`
	RecipientID uint      `json:"recipient_id"`
	Subject     string    `json:"subject"`
	Preview     string    `json:"preview"`
	IsRead      bool      `json:"is_read"`
	SentAt      time.Time `json:"sent_at"`
}

// filter: read, unread
func listMessages(ctx context.Context, store repository.Store, pq panelQuery) (interface{}, int, error) {
	msgs, err := store.Messages().List(ctx, pq.q, pq.limit)
	if err != nil {
		return nil, 0, err
	}
	rows := make([]messageRow, 0, len(msgs))
	for i := range msgs {
		m := &msgs[i]
		if (pq.filter == "read" && !m.IsRead) || (pq.filter == "unread" && m.IsRead) {
			continue
		}
		rows = append(rows, messageRow{
			ID:          m.ID,
			SenderID:    m.SenderID,
			RecipientID: m.RecipientID,
			Subject:     m.Subject,
			Preview:     m.Preview(),
			IsRead:      m.IsRead,
			SentAt:      m.SentAt,
		})
	}
	return rows, len(rows), nil
}

func listPayments(ctx context.Context, store repository.Store, pq panelQuery) (interface{}, int, error) {
	ps, err := store.Payments().List(ctx, pq.limit)
	return ps, len(ps), err
}

// filter: open, resolved
func listComplaints(ctx context.Context, store repository.Store, pq panelQuery) (interface{}, int, error) {
	var resolved *bool
	switch pq.filter {
	case "open":
		v := false
		resolved = &v
	case "resolved":
		v := true
		resolved = &v
	}
	cs, err := store.Complaints().List(ctx, resolved, pq.limit)
	if err != nil {
		return nil, 0, err
	}
	if pq.q != "" {
		q := strings.ToLower(pq.q)
		kept := cs[:0]
		for _, c := range cs {
			if strings.Contains(strings.ToLower(c.Message), q) {
				kept = append(kept, c)
			}
		}
		cs = kept
	}
	return cs, len(cs), nil
}

// filter: a delete reason
func listDeletions(ctx context.Context, store repository.Store, pq panelQuery) (interface{}, int, error) {
	logs, err := store.DeleteLogs().Recent(ctx, pq.limit)
	if err != nil {
		return nil, 0, err
	}
	if pq.filter != "" {
		kept := logs[:0]
		for _, l := range logs {
			if l.Reason == pq.filter {
				kept = append(kept, l)
			}
		}
		logs = kept
	}
	return logs, len(logs), nil
}
