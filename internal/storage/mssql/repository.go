package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"iedb-epitope-parser/internal/record"
)

type Repository struct {
	db             *sql.DB
	commandTimeout time.Duration
}

func NewRepository(dsn string, commandTimeout time.Duration) (*Repository, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{
		db:             db,
		commandTimeout: commandTimeout,
	}, nil
}

// UpsertRow stores or refreshes one extracted epitope row, keyed by Source URL.
func (r *Repository) UpsertRow(ctx context.Context, row record.Row) (isNew bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := `
		MERGE INTO TblEpitopes AS target
		USING (SELECT @SourceURL AS SourceURL) AS source
		ON target.[SourceURL] = source.SourceURL
		WHEN MATCHED THEN
			UPDATE SET
				[Organism] = @Organism,
				[Antigen] = @Antigen,
				[Epitope] = @Epitope,
				[PositiveAlleles] = @PositiveAlleles,
				[NegativeAlleles] = @NegativeAlleles,
				[TotalResponse] = @TotalResponse,
				[QualitativeBinding] = @QualitativeBinding,
				[TCellBinding] = @TCellBinding,
				[IFNGammaRelease] = @IFNGammaRelease
		WHEN NOT MATCHED THEN
			INSERT ([SourceURL], [Organism], [Antigen], [Epitope], [PositiveAlleles], [NegativeAlleles], [TotalResponse], [QualitativeBinding], [TCellBinding], [IFNGammaRelease])
			VALUES (@SourceURL, @Organism, @Antigen, @Epitope, @PositiveAlleles, @NegativeAlleles, @TotalResponse, @QualitativeBinding, @TCellBinding, @IFNGammaRelease)
		OUTPUT $action;
	`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return false, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			log.Printf("Failed to close statement: %v", err)
		}
	}()

	var action string
	err = stmt.QueryRowContext(ctx,
		sql.Named("SourceURL", row.Source),
		sql.Named("Organism", row.Organism),
		sql.Named("Antigen", row.Antigen),
		sql.Named("Epitope", row.Epitope),
		sql.Named("PositiveAlleles", row.PositiveAlleles),
		sql.Named("NegativeAlleles", row.NegativeAlleles),
		sql.Named("TotalResponse", row.TotalResponse),
		sql.Named("QualitativeBinding", row.QualitativeBinding),
		sql.Named("TCellBinding", row.TCellBinding),
		sql.Named("IFNGammaRelease", row.IFNGammaRelease),
	).Scan(&action)
	if err != nil {
		return false, fmt.Errorf("failed to execute upsert: %w", err)
	}

	return action == "INSERT", nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
