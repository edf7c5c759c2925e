package checkoutRepository

const (
	queryCreateReceipt = `
		INSERT INTO receipts (
			id,
			session_id,
			terminal_id,
			total,
			paid_at,
			va_number,
			va_bank,
			va_expires_at,
			va_guide_url,
			created_at
		) VALUES (
			:id,
			:session_id,
			:terminal_id,
			:total,
			:paid_at,
			:va_number,
			:va_bank,
			:va_expires_at,
			:va_guide_url,
			:created_at
		)
	`

	queryCreateReceiptLine = `
		INSERT INTO receipt_lines (
			receipt_id,
			line_no,
			name,
			price,
			probability,
			evidence_key,
			recognized_at
		) VALUES (
			:receipt_id,
			:line_no,
			:name,
			:price,
			:probability,
			:evidence_key,
			:recognized_at
		)
	`

	queryGetReceiptByID = `
		SELECT
			id,
			session_id,
			terminal_id,
			total,
			paid_at,
			va_number,
			va_bank,
			va_expires_at,
			va_guide_url
		FROM receipts
		WHERE id = :id
	`

	queryGetReceiptLines = `
		SELECT
			name,
			price,
			probability,
			evidence_key,
			recognized_at
		FROM receipt_lines
		WHERE receipt_id = :receipt_id
		ORDER BY line_no
	`
)
