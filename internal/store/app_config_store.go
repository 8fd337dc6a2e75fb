package store

import "context"

type AppConfigStore struct {
	db DB
}

// AppConfig is the singleton row holding the PromptPay receiving
// identity and the optional topup bonus percentage (a decimal string,
// e.g. "5" for 5%). Read-only input to the topup flow.
type AppConfig struct {
	PromptPayID  string `db:"promptpay_id"`
	BonusPercent string `db:"bonus_percent"`
}

func NewAppConfigStore(db DB) *AppConfigStore {
	return &AppConfigStore{db: db}
}

func (s *AppConfigStore) Get(ctx context.Context) (AppConfig, error) {
	var row AppConfig
	err := s.db.GetContext(ctx, &row, `
		SELECT promptpay_id, bonus_percent
		FROM app_config
		WHERE id = 1
	`)
	if err != nil {
		return AppConfig{}, err
	}
	return row, nil
}

func (s *AppConfigStore) Update(ctx context.Context, tx Execer, cfg AppConfig) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE app_config
		SET promptpay_id = $1, bonus_percent = $2
		WHERE id = 1
	`, cfg.PromptPayID, cfg.BonusPercent)
	return err
}
