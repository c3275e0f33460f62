package mysql

import (
	"context"
	"strings"
	"testing"

	"agroetl/internal/schema"
	"agroetl/internal/storage"
	myddl "agroetl/internal/storage/mysql/ddl"
)

func TestUpsertSQL(t *testing.T) {
	t.Parallel()

	got := UpsertSQL(schema.MarketTable(""), 2)
	want := "INSERT INTO `fact_market` (`date_key`, `fx_rate`, `equity_price`, `cattle_price`) " +
		"VALUES (?, ?, ?, ?), (?, ?, ?, ?) " +
		"ON DUPLICATE KEY UPDATE `fx_rate` = VALUES(`fx_rate`), `equity_price` = VALUES(`equity_price`), `cattle_price` = VALUES(`cattle_price`)"
	if got != want {
		t.Fatalf("UpsertSQL\n got: %s\nwant: %s", got, want)
	}
}

func TestUpsertSQL_KeyOnly(t *testing.T) {
	t.Parallel()

	tbl := schema.FactTable{Name: "k", Columns: []schema.Column{{Name: "date_key", Type: "date"}}, ConflictKey: "date_key"}
	got := UpsertSQL(tbl, 1)
	if !strings.HasSuffix(got, "ON DUPLICATE KEY UPDATE `date_key` = `date_key`") {
		t.Fatalf("UpsertSQL = %s", got)
	}
}

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	got, err := myddl.BuildCreateTableSQL(schema.ClimateTable(""))
	if err != nil {
		t.Fatalf("BuildCreateTableSQL error: %v", err)
	}
	for _, part := range []string{
		"CREATE TABLE IF NOT EXISTS `fact_climate`",
		"`date_key` DATE NOT NULL",
		"`max_temp` DECIMAL(18,4)",
		"`location` VARCHAR(200) NOT NULL",
		"PRIMARY KEY (`date_key`)",
	} {
		if !strings.Contains(got, part) {
			t.Fatalf("DDL missing %q:\n%s", part, got)
		}
	}
}

func TestNewRepository_BadDSN(t *testing.T) {
	t.Parallel()

	_, _, err := NewRepository(context.Background(), Config{DSN: "not a dsn"})
	if err == nil || !strings.Contains(err.Error(), "mysql dsn") {
		t.Fatalf("err = %v, want dsn error", err)
	}
}

func TestRowWidthChecked(t *testing.T) {
	t.Parallel()

	r := &Repository{}
	if _, err := r.Upsert(context.Background(), schema.MarketTable(""), [][]any{{"2026-01-01"}}); err == nil {
		t.Fatalf("expected row length error")
	}
}

func TestMySQLRegistrationUsesHook(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var got string
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		got = cfg.DSN
		return &Repository{}, func() {}, nil
	}
	repo, err := storage.New(context.Background(), storage.Config{Kind: "mysql", DSN: "u:p@tcp(db:3306)/agro"})
	if err != nil {
		t.Fatalf("storage.New error: %v", err)
	}
	defer repo.Close()
	if got != "u:p@tcp(db:3306)/agro" {
		t.Fatalf("DSN = %q", got)
	}
}
