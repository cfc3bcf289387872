package services

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/require"
	"github.com/username/spendlens/src/database"
	"github.com/username/spendlens/src/model"
	"github.com/username/spendlens/src/models"
	"github.com/username/spendlens/src/parsers"
	"github.com/username/spendlens/src/parsers/chase"
	"github.com/username/spendlens/src/processors"
	"github.com/username/spendlens/src/rules"
)

const chaseHeader = "Transaction Date,Post Date,Description,Category,Type,Amount,Memo\n"

type testEnv struct {
	db            *sql.DB
	registry      *parsers.Registry
	engine        *rules.Engine
	imports       ImportService
	subscriptions SubscriptionService
	rules         RuleService
	accounts      AccountService
	categories    CategoryService
	snapshots     SnapshotService
	dir           string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	registry := parsers.NewRegistry()
	registry.Register(chase.IssuerID, chase.NewParser())

	engine := rules.NewEngine(rules.RuleSourceFunc(func(ctx context.Context) ([]models.Rule, error) {
		return model.ListActiveRules(ctx, conn)
	}), cache.New(time.Minute, time.Minute), time.Minute)

	paymentTypes := []string{"Payment"}
	snapshots := NewSnapshotService(conn, paymentTypes)
	dir := t.TempDir()
	return &testEnv{
		db:            conn,
		registry:      registry,
		engine:        engine,
		imports:       NewImportService(conn, registry, engine, snapshots, filepath.Join(dir, "uploads")),
		subscriptions: NewSubscriptionService(conn, processors.NewRecurringProcessor(), paymentTypes),
		rules:         NewRuleService(conn, engine),
		accounts:      NewAccountService(conn, registry),
		categories:    NewCategoryService(conn),
		snapshots:     snapshots,
		dir:           dir,
	}
}

func (e *testEnv) account(t *testing.T, name string) int64 {
	t.Helper()
	a, err := e.accounts.CreateAccount(context.Background(), models.AccountCreate{Name: name, Owner: "Sam"})
	require.NoError(t, err)
	return a.ID
}

// writeCSV writes a Chase export with the given data lines and returns its path.
func (e *testEnv) writeCSV(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	content := chaseHeader
	if len(lines) > 0 {
		content += strings.Join(lines, "\n") + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (e *testEnv) countTransactions(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&n))
	return n
}

func (e *testEnv) categoryID(t *testing.T, name string) int64 {
	t.Helper()
	var id int64
	require.NoError(t, e.db.QueryRow(`SELECT id FROM categories WHERE name = ?`, name).Scan(&id))
	return id
}
