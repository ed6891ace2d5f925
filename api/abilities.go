package api

import (
	"net/http"

	"github.com/SlpAus/aureates-pokedex-backend/internal/integrity"
	"github.com/SlpAus/aureates-pokedex-backend/internal/listing"
	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/apperr"
	"github.com/gin-gonic/gin"
)

// abilityJSON 中的整数字段同时接受数字与数字字符串
type abilityJSON struct {
	ID       *intField `json:"id"`
	MasterID *intField `json:"masterId"`
	Ability  *string   `json:"ability"`
	Type     *string   `json:"type"`
	Damage   *intField `json:"damage"`
	Status   *string   `json:"status"`
}

func bindAbility(c *gin.Context) (abilityJSON, error) {
	var body abilityJSON
	if err := c.ShouldBindJSON(&body); err != nil {
		return body, apperr.Validation("invalid request body")
	}
	return body, nil
}

func toIntPtr(v *int64) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// POST /api/abilities
func (h *Handler) CreateAbility(c *gin.Context) {
	body, err := bindAbility(c)
	if err != nil {
		respondError(c, err)
		return
	}
	id, err := body.ID.Int("id")
	if err != nil {
		respondError(c, err)
		return
	}
	masterID, err := body.MasterID.Int("masterId")
	if err == nil && masterID == nil {
		err = apperr.Validation("masterId must be an integer")
	}
	if err != nil {
		respondError(c, err)
		return
	}
	damage, err := body.Damage.Int("damage")
	if err == nil && damage == nil {
		err = apperr.Validation("damage must be an integer")
	}
	if err != nil {
		respondError(c, err)
		return
	}

	rec, err := h.enforcer.CreateAbility(c.Request.Context(), integrity.CreateAbilityInput{
		ID:       id,
		MasterID: *masterID,
		Ability:  deref(body.Ability),
		Type:     deref(body.Type),
		Damage:   *toIntPtr(damage),
		Status:   deref(body.Status),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// GET /api/abilities?masterId=&status=&page=&limit=
func (h *Handler) ListAbilities(c *gin.Context) {
	q := integrity.AbilityQuery{
		Request: listing.Parse(c.Query("page"), c.Query("limit")),
		Status:  c.Query("status"),
	}
	if raw := c.Query("masterId"); raw != "" {
		masterID, err := parseInt(raw, "masterId")
		if err != nil {
			respondError(c, err)
			return
		}
		q.MasterID = &masterID
	}

	res, err := h.enforcer.ListAbilities(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/abilities/:id
func (h *Handler) GetAbility(c *gin.Context) {
	id, err := parseInt(c.Param("id"), "id")
	if err != nil {
		respondError(c, err)
		return
	}
	rec, err := h.enforcer.GetAbility(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// PUT /api/abilities/:id
func (h *Handler) UpdateAbility(c *gin.Context) {
	id, err := parseInt(c.Param("id"), "id")
	if err != nil {
		respondError(c, err)
		return
	}
	body, err := bindAbility(c)
	if err != nil {
		respondError(c, err)
		return
	}
	masterID, err := body.MasterID.Int("masterId")
	if err != nil {
		respondError(c, err)
		return
	}
	damage, err := body.Damage.Int("damage")
	if err != nil {
		respondError(c, err)
		return
	}

	rec, err := h.enforcer.UpdateAbility(c.Request.Context(), id, integrity.UpdateAbilityInput{
		MasterID: masterID,
		Ability:  body.Ability,
		Type:     body.Type,
		Damage:   toIntPtr(damage),
		Status:   body.Status,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// DELETE /api/abilities/:id
func (h *Handler) DeleteAbility(c *gin.Context) {
	id, err := parseInt(c.Param("id"), "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.enforcer.DeleteAbility(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ability deleted"})
}
