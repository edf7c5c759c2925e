package productRepository

const (
	queryListProducts = `
		SELECT
			name,
			description,
			price,
			category
		FROM products
		WHERE is_active = TRUE
		ORDER BY sort_order, name
	`

	queryUpsertProduct = `
		INSERT INTO products (
			name,
			description,
			price,
			category,
			sort_order,
			is_active,
			created_at,
			updated_at
		) VALUES (
			:name,
			:description,
			:price,
			:category,
			:sort_order,
			TRUE,
			:created_at,
			:updated_at
		)
		ON CONFLICT (name) DO UPDATE SET
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			sort_order = EXCLUDED.sort_order,
			updated_at = EXCLUDED.updated_at
	`
)
