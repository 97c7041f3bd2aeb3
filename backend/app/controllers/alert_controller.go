package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"servermon/backend/app/dto"
	"servermon/backend/app/models"
	"servermon/backend/app/repo"

	"gorm.io/gorm"
)

type AlertController struct {
	Rules  *repo.AlertRuleRepository
	Alerts *repo.AlertRepository
}

func NewAlertController(rules *repo.AlertRuleRepository, alerts *repo.AlertRepository) *AlertController {
	return &AlertController{Rules: rules, Alerts: alerts}
}

func (c *AlertController) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req dto.AlertRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return
	}
	if req.Name == "" || req.TargetType == "" {
		writeError(w, http.StatusBadRequest, "name and targetType required")
		return
	}
	rule := &models.AlertRule{
		Name:            req.Name,
		ServerID:        req.ServerID,
		TargetType:      req.TargetType,
		Target:          req.Target,
		Metric:          req.Metric,
		Comparison:      req.Comparison,
		ThresholdValue:  req.ThresholdValue,
		Severity:        req.Severity,
		CooldownMinutes: req.CooldownMinutes,
		IsActive:        req.IsActive,
	}
	if err := c.Rules.Create(rule); err != nil {
		writeError(w, http.StatusInternalServerError, "create failed")
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (c *AlertController) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := c.Rules.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func (c *AlertController) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad rule id")
		return
	}
	rule, err := c.Rules.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "rule not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	var req dto.AlertRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return
	}
	rule.Name = req.Name
	rule.ServerID = req.ServerID
	rule.TargetType = req.TargetType
	rule.Target = req.Target
	rule.Metric = req.Metric
	rule.Comparison = req.Comparison
	rule.ThresholdValue = req.ThresholdValue
	rule.Severity = req.Severity
	rule.CooldownMinutes = req.CooldownMinutes
	rule.IsActive = req.IsActive
	if err := c.Rules.Save(rule); err != nil {
		writeError(w, http.StatusInternalServerError, "update failed")
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (c *AlertController) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad rule id")
		return
	}
	if err := c.Rules.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *AlertController) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := c.Alerts.List(queryInt(r, "limit", 100))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (c *AlertController) ListServerAlerts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad server id")
		return
	}
	alerts, err := c.Alerts.ListByServer(id, queryInt(r, "limit", 100))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (c *AlertController) Acknowledge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad alert id")
		return
	}
	if err := c.Alerts.Acknowledge(id, time.Now()); err != nil {
		writeError(w, http.StatusInternalServerError, "acknowledge failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
