package authRepository

const (
	queryCreateTerminal = `
		INSERT INTO terminals (
			id,
			name,
			secret_hash,
			is_active,
			created_at
		) VALUES (
			:id,
			:name,
			:secret_hash,
			:is_active,
			:created_at
		)
	`

	queryGetTerminalByID = `
		SELECT
			id,
			name,
			secret_hash,
			is_active,
			created_at
		FROM terminals
		WHERE id = :id
	`

	queryTouchLastLogin = `
		UPDATE terminals
		SET last_login_at = :last_login_at
		WHERE id = :id
	`
)
