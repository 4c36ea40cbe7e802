package audit

import (
	"fmt"

	"istasyon-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuditLogResponse struct {
	ID          uint   `json:"id"`
	CreatedAt   string `json:"created_at"`
	UserID      uint   `json:"user_id"`
	UserName    string `json:"user_name"`
	RequestID   string `json:"request_id"`
	EntityType  string `json:"entity_type"`
	EntityID    uint   `json:"entity_id"`
	Action      string `json:"action"`
	Description string `json:"description"`
	BeforeData  string `json:"before_data"`
	AfterData   string `json:"after_data"`
}

// GET /api/audit-logs?entity_type=shift&entity_id=1&user_id=2&limit=50
func ListHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}

		f := Filter{EntityType: c.Query("entity_type"), Limit: c.QueryInt("limit", 100)}
		if s := c.Query("entity_id"); s != "" {
			var id uint
			if _, err := fmt.Sscan(s, &id); err == nil {
				f.EntityID = id
			}
		}
		if s := c.Query("user_id"); s != "" {
			var id uint
			if _, err := fmt.Sscan(s, &id); err == nil {
				f.UserID = id
			}
		}

		logs, err := List(db, actor.StationID, f)
		if err != nil {
			return err
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, AuditLogResponse{
				ID:          l.ID,
				CreatedAt:   l.CreatedAt.Format("2006-01-02 15:04:05"),
				UserID:      l.UserID,
				UserName:    l.UserName,
				RequestID:   l.RequestID,
				EntityType:  l.EntityType,
				EntityID:    l.EntityID,
				Action:      string(l.Action),
				Description: l.Description,
				BeforeData:  l.BeforeData,
				AfterData:   l.AfterData,
			})
		}
		return c.JSON(resp)
	}
}
