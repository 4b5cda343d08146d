package http

import (
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"financas/internal/core"
	"financas/internal/storage"
)

type accountView struct {
	ID      int64
	Name    string
	Balance string
}

type categoryView struct {
	ID   int64
	Name string
	Kind string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	accounts, err := s.svc.ListAccounts(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "List accounts error", "error", err)
	}
	categories, err := s.svc.ListCategories(ctx, nil)
	if err != nil {
		slog.ErrorContext(ctx, "List categories error", "error", err)
	}

	var accountViews []accountView
	for _, a := range accounts {
		balance, err := s.svc.Balance(ctx, a.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Balance error", "error", err, "account_id", a.ID)
			continue
		}
		accountViews = append(accountViews, accountView{
			ID:      a.ID,
			Name:    a.Name,
			Balance: balance.String(),
		})
	}

	var categoryViews []categoryView
	for _, c := range categories {
		categoryViews = append(categoryViews, categoryView{
			ID:   c.ID,
			Name: c.Name,
			Kind: c.Kind.Label(),
		})
	}

	now := time.Now()
	data := struct {
		Year       int
		Month      int
		Accounts   []accountView
		Categories []categoryView
	}{
		Year:       now.Year(),
		Month:      int(now.Month()),
		Accounts:   accountViews,
		Categories: categoryViews,
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(ctx, "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Formato de requisição inválido")
		return
	}

	name := sanitizeInput(r.Form.Get("name"))
	opening := int64(0)
	if v := strings.TrimSpace(r.Form.Get("opening_balance")); v != "" {
		cents, err := core.ParseSignedCents(v)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "Saldo inicial inválido")
			return
		}
		opening = cents
	}

	account, err := s.svc.CreateAccount(r.Context(), name, core.Money{Cents: opening})
	if err != nil {
		writeServiceError(w, r, err, "Erro ao criar conta")
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Conta criada: ` +
		template.HTMLEscapeString(account.Name) + `</div>`))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Formato de requisição inválido")
		return
	}

	name := sanitizeInput(r.Form.Get("name"))
	kind, err := core.ParseCategoryKind(strings.TrimSpace(r.Form.Get("kind")))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Tipo de categoria inválido")
		return
	}

	category, err := s.svc.CreateCategory(r.Context(), name, kind)
	if err != nil {
		writeServiceError(w, r, err, "Erro ao criar categoria")
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Categoria criada: ` +
		template.HTMLEscapeString(category.Name) + `</div>`))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		writeError(w, http.StatusBadRequest, "Formato de requisição inválido")
		return
	}

	kind, err := core.ParseTransactionKind(strings.TrimSpace(r.Form.Get("kind")))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Tipo de transação inválido")
		return
	}

	cents, err := core.ParseDecimalToCents(strings.TrimSpace(r.Form.Get("amount")))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Valor inválido")
		return
	}

	sourceID, err := strconv.ParseInt(r.Form.Get("account"), 10, 64)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Conta inválida")
		return
	}

	params := storage.RecordParams{
		Kind:            kind,
		Amount:          core.Money{Cents: cents},
		SourceAccountID: sourceID,
		Description:     sanitizeInput(r.Form.Get("description")),
	}

	if v := strings.TrimSpace(r.Form.Get("date")); v != "" {
		date, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "Data inválida")
			return
		}
		params.Date = date
	}

	if v := strings.TrimSpace(r.Form.Get("category")); v != "" {
		categoryID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "Categoria inválida")
			return
		}
		params.CategoryID = &categoryID
	}
	if v := strings.TrimSpace(r.Form.Get("destination")); v != "" {
		destinationID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "Conta de destino inválida")
			return
		}
		params.DestinationAccountID = &destinationID
	}

	tx, err := s.svc.RecordTransaction(r.Context(), params)
	if err != nil {
		writeServiceError(w, r, err, "Erro ao registrar transação")
		return
	}

	year, month := tx.Date.Year(), int(tx.Date.Month())
	s.invalidateSummary(year, month)
	w.Header().Set("HX-Trigger", `{"transaction:created": {"year": `+strconv.Itoa(year)+`, "month": `+strconv.Itoa(month)+`}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">` +
		template.HTMLEscapeString(tx.Kind.Label()) + ` registrada: ` +
		template.HTMLEscapeString(tx.Amount.String()) + `</div>`))
}

// handleMonthOverview renders the monthly summary partial.
func (s *Server) handleMonthOverview(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	now := time.Now()
	year := now.Year()
	month := int(now.Month())
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			month = m
		}
	}
	if month < 1 || month > 12 {
		slog.WarnContext(r.Context(), "Invalid month parameter", "year", year, "month", month, "corrected_to", int(now.Month()))
		month = int(now.Month())
	}

	summary, err := s.getSummary(r.Context(), year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Month summary error", "error", err, "year", year, "month", month)
		_, _ = w.Write([]byte(`<section id="month-overview" class="month-overview"><div class="placeholder">Erro ao carregar o resumo</div></section>`))
		return
	}
	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="month-overview" class="month-overview"><div class="placeholder">Saldo do mês: ` + summary.Net.String() + `</div></section>`))
		return
	}

	// Compute max category for progress scaling
	var maxCents int64
	for _, row := range summary.ByCategory {
		if row.Amount.Cents > maxCents {
			maxCents = row.Amount.Cents
		}
	}
	type row struct {
		Name, Amount string
		Width        int
	}
	data := struct {
		Year     int
		Month    int
		Income   string
		Expenses string
		Net      string
		Rows     []row
	}{
		Year:     summary.Month.Year,
		Month:    summary.Month.Month,
		Income:   summary.Income.String(),
		Expenses: summary.Expenses.String(),
		Net:      summary.Net.String(),
	}
	for _, c := range summary.ByCategory {
		width := 0
		if maxCents > 0 && c.Amount.Cents > 0 {
			width = int((c.Amount.Cents*100 + maxCents/2) / maxCents) // rounded percent
			if width > 0 && width < 2 {                               // ensure visibility for very small values
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		data.Rows = append(data.Rows, row{Name: c.Name, Amount: c.Amount.String(), Width: width})
	}

	if err := s.templates.ExecuteTemplate(w, "month_overview.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "month_overview.html", "year", year, "month", month)
		_, _ = w.Write([]byte(`<section id="month-overview" class="month-overview"><div class="placeholder">Erro ao renderizar o resumo</div></section>`))
	}
}
