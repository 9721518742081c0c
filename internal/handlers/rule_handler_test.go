package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"spendwise/internal/categorize"
	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/services"
)

type mockRuleService struct {
	listRulesFn                 func() ([]models.Rule, error)
	getRuleFn                   func(id uint) (*models.Rule, error)
	createRuleFn                func(input services.RuleInput) (*models.Rule, error)
	updateRuleFn                func(id uint, input services.RuleInput) (*models.Rule, error)
	deleteRuleFn                func(id uint) error
	applyRulesFn                func(req services.ApplyRequest) (*categorize.Summary, error)
	previewRulesFn              func(req services.ApplyRequest) (*categorize.Summary, error)
	createRuleFromTransactionFn func(transactionID, categoryID uint, matchType categorize.MatchType, priority *int) (*models.Rule, error)
}

func (m *mockRuleService) ListRules() ([]models.Rule, error) {
	if m.listRulesFn != nil {
		return m.listRulesFn()
	}
	return []models.Rule{}, nil
}

func (m *mockRuleService) GetRule(id uint) (*models.Rule, error) {
	if m.getRuleFn != nil {
		return m.getRuleFn(id)
	}
	return &models.Rule{Base: models.Base{ID: id}}, nil
}

func (m *mockRuleService) CreateRule(input services.RuleInput) (*models.Rule, error) {
	if m.createRuleFn != nil {
		return m.createRuleFn(input)
	}
	return &models.Rule{Name: input.Name}, nil
}

func (m *mockRuleService) UpdateRule(id uint, input services.RuleInput) (*models.Rule, error) {
	if m.updateRuleFn != nil {
		return m.updateRuleFn(id, input)
	}
	return &models.Rule{Base: models.Base{ID: id}, Name: input.Name}, nil
}

func (m *mockRuleService) DeleteRule(id uint) error {
	if m.deleteRuleFn != nil {
		return m.deleteRuleFn(id)
	}
	return nil
}

func (m *mockRuleService) ApplyRules(req services.ApplyRequest) (*categorize.Summary, error) {
	if m.applyRulesFn != nil {
		return m.applyRulesFn(req)
	}
	return &categorize.Summary{}, nil
}

func (m *mockRuleService) PreviewRules(req services.ApplyRequest) (*categorize.Summary, error) {
	if m.previewRulesFn != nil {
		return m.previewRulesFn(req)
	}
	return &categorize.Summary{}, nil
}

func (m *mockRuleService) CreateRuleFromTransaction(transactionID, categoryID uint, matchType categorize.MatchType, priority *int) (*models.Rule, error) {
	if m.createRuleFromTransactionFn != nil {
		return m.createRuleFromTransactionFn(transactionID, categoryID, matchType, priority)
	}
	return &models.Rule{AssignCategoryID: categoryID}, nil
}

var _ services.RuleServicer = (*mockRuleService)(nil)

func setupRuleRouter(handler *RuleHandler) *gin.Engine {
	r := gin.New()
	r.GET("/rules", handler.ListRules)
	r.POST("/rules", handler.CreateRule)
	r.POST("/rules/apply", handler.ApplyRules)
	r.POST("/rules/preview", handler.PreviewRules)
	r.POST("/rules/from-transaction/:id", handler.CreateRuleFromTransaction)
	r.GET("/rules/:id", handler.GetRule)
	r.PUT("/rules/:id", handler.UpdateRule)
	r.DELETE("/rules/:id", handler.DeleteRule)
	return r
}

func TestRuleHandler_CreateRule(t *testing.T) {
	t.Run("defaults is_active to true", func(t *testing.T) {
		var got services.RuleInput
		svc := &mockRuleService{
			createRuleFn: func(input services.RuleInput) (*models.Rule, error) {
				got = input
				return &models.Rule{Base: models.Base{ID: 1}, Name: input.Name, IsActive: input.IsActive}, nil
			},
		}
		r := setupRuleRouter(NewRuleHandler(svc))

		rec := doRequest(r, "POST", "/rules",
			`{"name":"Groceries","match_counterpart_name":"REWE","assign_category_id":3}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !got.IsActive {
			t.Error("expected rule to be active by default")
		}
		if got.MatchCounterpartName == nil || *got.MatchCounterpartName != "REWE" {
			t.Errorf("unexpected counterpart criterion %v", got.MatchCounterpartName)
		}
	})

	t.Run("keeps explicit is_active false", func(t *testing.T) {
		var got services.RuleInput
		svc := &mockRuleService{
			createRuleFn: func(input services.RuleInput) (*models.Rule, error) {
				got = input
				return &models.Rule{}, nil
			},
		}
		r := setupRuleRouter(NewRuleHandler(svc))

		rec := doRequest(r, "POST", "/rules",
			`{"match_purpose":"rent","assign_category_id":3,"is_active":false,"match_amount_min":"-1000.00"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.IsActive {
			t.Error("expected inactive rule")
		}
		if got.MatchAmountMin == nil || got.MatchAmountMin.String() != "-1000" {
			t.Errorf("expected amount min -1000, got %v", got.MatchAmountMin)
		}
	})

	t.Run("returns 400 without a target category", func(t *testing.T) {
		r := setupRuleRouter(NewRuleHandler(&mockRuleService{}))

		rec := doRequest(r, "POST", "/rules", `{"match_purpose":"rent"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on invalid rule", func(t *testing.T) {
		svc := &mockRuleService{
			createRuleFn: func(services.RuleInput) (*models.Rule, error) {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidRule, "A rule needs at least one criterion")
			},
		}
		r := setupRuleRouter(NewRuleHandler(svc))

		rec := doRequest(r, "POST", "/rules", `{"assign_category_id":3}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_RULE")
	})
}

func TestRuleHandler_ListRules(t *testing.T) {
	t.Run("returns rules", func(t *testing.T) {
		svc := &mockRuleService{
			listRulesFn: func() ([]models.Rule, error) {
				return []models.Rule{{Name: "a", Priority: 1}, {Name: "b", Priority: 2}}, nil
			},
		}
		r := setupRuleRouter(NewRuleHandler(svc))

		rec := doRequest(r, "GET", "/rules", "")

		rules := parseJSON(t, rec)["rules"].([]interface{})
		if len(rules) != 2 {
			t.Errorf("expected 2 rules, got %d", len(rules))
		}
	})
}

func TestRuleHandler_DeleteRule(t *testing.T) {
	t.Run("returns 404 when missing", func(t *testing.T) {
		svc := &mockRuleService{deleteRuleFn: func(uint) error { return apperrors.ErrRuleNotFound }}
		r := setupRuleRouter(NewRuleHandler(svc))

		rec := doRequest(r, "DELETE", "/rules/4", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "RULE_NOT_FOUND")
	})
}

func TestRuleHandler_ApplyRules(t *testing.T) {
	t.Run("accepts an empty body", func(t *testing.T) {
		var got services.ApplyRequest
		svc := &mockRuleService{
			applyRulesFn: func(req services.ApplyRequest) (*categorize.Summary, error) {
				got = req
				return &categorize.Summary{Matched: 2, Changed: 2}, nil
			},
		}
		r := setupRuleRouter(NewRuleHandler(svc))

		rec := doRequest(r, "POST", "/rules/apply", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Reclassify != nil {
			t.Errorf("expected default policy, got reclassify=%v", *got.Reclassify)
		}
		if parseJSON(t, rec)["changed"].(float64) != 2 {
			t.Errorf("unexpected summary %s", rec.Body.String())
		}
	})

	t.Run("forwards reclassify and scope", func(t *testing.T) {
		var got services.ApplyRequest
		svc := &mockRuleService{
			applyRulesFn: func(req services.ApplyRequest) (*categorize.Summary, error) {
				got = req
				return &categorize.Summary{}, nil
			},
		}
		r := setupRuleRouter(NewRuleHandler(svc))

		rec := doRequest(r, "POST", "/rules/apply", `{"reclassify":true,"profile_id":2}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Reclassify == nil || !*got.Reclassify {
			t.Error("expected reclassify=true")
		}
		if got.Scope.ProfileID == nil || *got.Scope.ProfileID != 2 {
			t.Errorf("expected profile scope 2, got %v", got.Scope.ProfileID)
		}
	})

	t.Run("returns 400 on scope conflict", func(t *testing.T) {
		svc := &mockRuleService{
			applyRulesFn: func(services.ApplyRequest) (*categorize.Summary, error) {
				return nil, apperrors.ErrScopeConflict
			},
		}
		r := setupRuleRouter(NewRuleHandler(svc))

		rec := doRequest(r, "POST", "/rules/apply", `{"profile_id":2,"shared":true}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "SCOPE_CONFLICT")
	})
}

func TestRuleHandler_PreviewRules(t *testing.T) {
	t.Run("calls preview, not apply", func(t *testing.T) {
		applied := false
		svc := &mockRuleService{
			applyRulesFn: func(services.ApplyRequest) (*categorize.Summary, error) {
				applied = true
				return &categorize.Summary{}, nil
			},
			previewRulesFn: func(services.ApplyRequest) (*categorize.Summary, error) {
				return &categorize.Summary{Matched: 1, Assignments: []categorize.Assignment{{TransactionID: 9, CategoryID: 3, RuleID: 1}}}, nil
			},
		}
		r := setupRuleRouter(NewRuleHandler(svc))

		rec := doRequest(r, "POST", "/rules/preview", `{}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if applied {
			t.Error("preview must not apply")
		}
		assignments := parseJSON(t, rec)["assignments"].([]interface{})
		if len(assignments) != 1 {
			t.Errorf("expected 1 assignment, got %d", len(assignments))
		}
	})
}

func TestRuleHandler_CreateRuleFromTransaction(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var gotTx, gotCat uint
		var gotType categorize.MatchType
		svc := &mockRuleService{
			createRuleFromTransactionFn: func(txID, catID uint, mt categorize.MatchType, _ *int) (*models.Rule, error) {
				gotTx, gotCat, gotType = txID, catID, mt
				return &models.Rule{Base: models.Base{ID: 5}, AssignCategoryID: catID}, nil
			},
		}
		r := setupRuleRouter(NewRuleHandler(svc))

		rec := doRequest(r, "POST", "/rules/from-transaction/12",
			`{"category_id":3,"match_type":"counterpart_iban"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotTx != 12 || gotCat != 3 || gotType != categorize.MatchCounterpartIBAN {
			t.Errorf("unexpected args tx=%d cat=%d type=%s", gotTx, gotCat, gotType)
		}
	})

	t.Run("returns 400 on unknown match type", func(t *testing.T) {
		r := setupRuleRouter(NewRuleHandler(&mockRuleService{}))

		rec := doRequest(r, "POST", "/rules/from-transaction/12",
			`{"category_id":3,"match_type":"amount"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}
