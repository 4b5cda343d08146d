package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"financas/cmd/financas/internal/menu"
	"financas/internal/amqp"
	"financas/internal/cli"
	"financas/internal/core"
	"financas/internal/ledger"
	"financas/internal/storage"
)

const usage = `Uso: financas <comando> [argumentos]

Comandos:
  criar-tabelas                          cria o banco e os dados iniciais
  criar-conta <nome> [saldo-inicial]     cria uma conta
  criar-categoria <nome> <tipo>          cria uma categoria (receita|despesa)
  transacao <tipo> <valor> <conta> ...   registra uma transação:
      transacao receita <valor> <conta> <categoria|_> [descrição]
      transacao despesa <valor> <conta> <categoria|_> [descrição]
      transacao transferencia <valor> <origem> <destino> [descrição]
  saldo <conta>                          saldo atual da conta
  listar-contas                          contas com saldos
  listar-categorias [tipo]               categorias, opcionalmente por tipo
  listar-transacoes <conta> [-mes AAAA-MM] [-todas]
  resumo-mes [AAAA-MM]                   totais e despesas por categoria
  menu                                   menu interativo (padrão)
`

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	cfg := cli.LoadConfig(logger)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store := cli.InitLedger(logger, cfg.DBPath)

	var events *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, transactions will not be published", "error", err)
		}
	}

	svc := ledger.New(store, events)
	defer svc.Close()

	args := os.Args[1:]
	command := "menu"
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	ctx := context.Background()
	var err error
	switch command {
	case "criar-tabelas":
		err = runCriarTabelas(ctx, svc)
	case "criar-conta":
		err = runCriarConta(ctx, svc, args)
	case "criar-categoria":
		err = runCriarCategoria(ctx, svc, args)
	case "transacao":
		err = runTransacao(ctx, svc, args)
	case "saldo":
		err = runSaldo(ctx, svc, args)
	case "listar-contas":
		err = runListarContas(ctx, svc)
	case "listar-categorias":
		err = runListarCategorias(ctx, svc, args)
	case "listar-transacoes":
		err = runListarTransacoes(ctx, svc, args)
	case "resumo-mes":
		err = runResumoMes(ctx, svc, args)
	case "menu":
		err = menu.Run(svc)
	case "ajuda", "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "comando desconhecido: %s\n\n%s", command, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "erro:", err)
		os.Exit(1)
	}
}

func runCriarTabelas(ctx context.Context, svc *ledger.Service) error {
	// The schema is migrated on open; this seeds the starter data.
	if err := svc.SeedDefaults(ctx); err != nil {
		return err
	}
	fmt.Println("Tabelas criadas e dados iniciais prontos.")
	return nil
}

func runCriarConta(ctx context.Context, svc *ledger.Service, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("uso: financas criar-conta <nome> [saldo-inicial]")
	}
	name := args[0]
	opening := core.Money{}
	if len(args) > 1 {
		cents, err := core.ParseSignedCents(args[1])
		if err != nil {
			return fmt.Errorf("saldo inicial inválido: %w", err)
		}
		opening = core.Money{Cents: cents}
	}
	account, err := svc.CreateAccount(ctx, name, opening)
	if err != nil {
		return err
	}
	fmt.Printf("Conta criada: %s (saldo inicial %s)\n", account.Name, account.OpeningBalance)
	return nil
}

func runCriarCategoria(ctx context.Context, svc *ledger.Service, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("uso: financas criar-categoria <nome> <receita|despesa>")
	}
	kind, err := core.ParseCategoryKind(args[1])
	if err != nil {
		return err
	}
	category, err := svc.CreateCategory(ctx, args[0], kind)
	if err != nil {
		return err
	}
	fmt.Printf("Categoria pronta: %s (%s)\n", category.Name, category.Kind.Label())
	return nil
}

func runTransacao(ctx context.Context, svc *ledger.Service, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("uso: financas transacao <tipo> <valor> <conta> ...")
	}
	kind, err := core.ParseTransactionKind(args[0])
	if err != nil {
		return err
	}
	cents, err := core.ParseDecimalToCents(args[1])
	if err != nil {
		return fmt.Errorf("valor inválido: %w", err)
	}
	source, err := findAccount(ctx, svc, args[2])
	if err != nil {
		return err
	}

	params := storage.RecordParams{
		Kind:            kind,
		Amount:          core.Money{Cents: cents},
		SourceAccountID: source.ID,
	}

	rest := args[3:]
	if kind == core.KindTransfer {
		if len(rest) < 1 {
			return fmt.Errorf("uso: financas transacao transferencia <valor> <origem> <destino> [descrição]")
		}
		destination, err := findAccount(ctx, svc, rest[0])
		if err != nil {
			return err
		}
		params.DestinationAccountID = &destination.ID
		rest = rest[1:]
	} else {
		if len(rest) < 1 {
			return fmt.Errorf("uso: financas transacao %s <valor> <conta> <categoria|_> [descrição]", args[0])
		}
		// "_" leaves the category unset.
		if rest[0] != "_" {
			category, err := findCategory(ctx, svc, rest[0], kind)
			if err != nil {
				return err
			}
			params.CategoryID = &category.ID
		}
		rest = rest[1:]
	}
	params.Description = strings.Join(rest, " ")

	tx, err := svc.RecordTransaction(ctx, params)
	if err != nil {
		return err
	}
	fmt.Printf("%s registrada: %s em %s\n", tx.Kind.Label(), tx.Amount, tx.Date.Format("2006-01-02"))
	return nil
}

func runSaldo(ctx context.Context, svc *ledger.Service, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("uso: financas saldo <conta>")
	}
	account, err := findAccount(ctx, svc, args[0])
	if err != nil {
		return err
	}
	balance, err := svc.Balance(ctx, account.ID)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", account.Name, balance)
	return nil
}

func runListarContas(ctx context.Context, svc *ledger.Service) error {
	accounts, err := svc.ListAccounts(ctx)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Println("Nenhuma conta cadastrada.")
		return nil
	}
	for _, account := range accounts {
		balance, err := svc.Balance(ctx, account.ID)
		if err != nil {
			return err
		}
		fmt.Printf("%-20s %s\n", account.Name, balance)
	}
	return nil
}

func runListarCategorias(ctx context.Context, svc *ledger.Service, args []string) error {
	var kind *core.CategoryKind
	if len(args) > 0 {
		parsed, err := core.ParseCategoryKind(args[0])
		if err != nil {
			return err
		}
		kind = &parsed
	}
	categories, err := svc.ListCategories(ctx, kind)
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		fmt.Println("Nenhuma categoria cadastrada.")
		return nil
	}
	for _, category := range categories {
		fmt.Printf("%-20s %s\n", category.Name, category.Kind.Label())
	}
	return nil
}

func runListarTransacoes(ctx context.Context, svc *ledger.Service, args []string) error {
	fs := flag.NewFlagSet("listar-transacoes", flag.ContinueOnError)
	monthFlag := fs.String("mes", "", "mês no formato AAAA-MM")
	allFlag := fs.Bool("todas", false, "listar todas as transações, não só as do mês")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "uso: financas listar-transacoes <conta> [-mes AAAA-MM] [-todas]")
	}

	if len(args) < 1 {
		fs.Usage()
		return fmt.Errorf("conta não informada")
	}
	accountName := args[0]
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	account, err := findAccount(ctx, svc, accountName)
	if err != nil {
		return err
	}

	var month *core.MonthRef
	switch {
	case *allFlag:
		month = nil
	case *monthFlag != "":
		parsed, err := parseMonth(*monthFlag)
		if err != nil {
			return err
		}
		month = &parsed
	default:
		now := time.Now()
		month = &core.MonthRef{Year: now.Year(), Month: int(now.Month())}
	}

	txs, err := svc.ListTransactions(ctx, account.ID, month)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		fmt.Println("Nenhuma transação encontrada.")
		return nil
	}

	accounts, err := svc.ListAccounts(ctx)
	if err != nil {
		return err
	}
	categories, err := svc.ListCategories(ctx, nil)
	if err != nil {
		return err
	}
	accountNames := make(map[int64]string, len(accounts))
	for _, a := range accounts {
		accountNames[a.ID] = a.Name
	}
	categoryNames := make(map[int64]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}

	for _, tx := range txs {
		detail := ""
		switch {
		case tx.Kind == core.KindTransfer && tx.DestinationAccountID != nil:
			detail = accountNames[tx.SourceAccountID] + " -> " + accountNames[*tx.DestinationAccountID]
		case tx.CategoryID != nil:
			detail = categoryNames[*tx.CategoryID]
		}
		fmt.Printf("%s  %-13s %10s  %-20s %s\n",
			tx.Date.Format("2006-01-02"), tx.Kind.Label(), tx.Amount, detail, tx.Description)
	}
	return nil
}

func runResumoMes(ctx context.Context, svc *ledger.Service, args []string) error {
	now := time.Now()
	month := core.MonthRef{Year: now.Year(), Month: int(now.Month())}
	if len(args) > 0 {
		parsed, err := parseMonth(args[0])
		if err != nil {
			return err
		}
		month = parsed
	}

	summary, err := svc.MonthSummary(ctx, month)
	if err != nil {
		return err
	}

	fmt.Printf("Resumo de %02d/%d\n", summary.Month.Month, summary.Month.Year)
	fmt.Printf("Receitas: %s\n", summary.Income)
	fmt.Printf("Despesas: %s\n", summary.Expenses)
	fmt.Printf("Saldo:    %s\n", summary.Net)
	if len(summary.ByCategory) > 0 {
		fmt.Println("\nDespesas por categoria:")
		for _, row := range summary.ByCategory {
			fmt.Printf("  %-20s %s\n", row.Name, row.Amount)
		}
	}
	return nil
}

func parseMonth(s string) (core.MonthRef, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return core.MonthRef{}, fmt.Errorf("mês inválido %q, use AAAA-MM", s)
	}
	return core.MonthRef{Year: t.Year(), Month: int(t.Month())}, nil
}

// findAccount accepts either a numeric id or an account name.
func findAccount(ctx context.Context, svc *ledger.Service, ref string) (core.Account, error) {
	accounts, err := svc.ListAccounts(ctx)
	if err != nil {
		return core.Account{}, err
	}
	id, idErr := strconv.ParseInt(ref, 10, 64)
	for _, account := range accounts {
		if idErr == nil && account.ID == id {
			return account, nil
		}
		if strings.EqualFold(account.Name, ref) {
			return account, nil
		}
	}
	return core.Account{}, fmt.Errorf("conta %q: %w", ref, core.ErrAccountNotFound)
}

// findCategory accepts either a numeric id or a category name, scoped to the
// category kind matching the transaction kind.
func findCategory(ctx context.Context, svc *ledger.Service, ref string, kind core.TransactionKind) (core.Category, error) {
	want := core.CategoryExpense
	if kind == core.KindIncome {
		want = core.CategoryIncome
	}
	categories, err := svc.ListCategories(ctx, &want)
	if err != nil {
		return core.Category{}, err
	}
	id, idErr := strconv.ParseInt(ref, 10, 64)
	for _, category := range categories {
		if idErr == nil && category.ID == id {
			return category, nil
		}
		if strings.EqualFold(category.Name, ref) {
			return category, nil
		}
	}
	return core.Category{}, fmt.Errorf("categoria %q (%s): %w", ref, want.Label(), core.ErrCategoryNotFound)
}
