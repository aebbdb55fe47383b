package mockapi

const (
	// Buyer queries
	queryInsertBuyer = `
		INSERT INTO buyers (
			username, email, password_hash, first_name, last_name, national_id,
			birth_place, birth_date, gender, phone_number, address, village,
			subdistrict, city, province, country, postal_code, company_name
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetBuyerByEmail = `
		SELECT id, username, email, password_hash, first_name, last_name, company_name
		FROM buyers
		WHERE email = ?`

	queryGetBuyerById = `
		SELECT id, username, email, password_hash, first_name, last_name, company_name
		FROM buyers
		WHERE id = ?`

	queryCountBuyerByEmail = `
		SELECT COUNT(1) FROM buyers WHERE email = ?`

	queryCountBuyerByUsername = `
		SELECT COUNT(1) FROM buyers WHERE username = ?`

	// Transaction queries
	queryInsertTransaction = `
		INSERT INTO transactions (
			buyer_id, zone_name, zone_location, total_carbon, price_per_ton,
			total_price, tax, grand_total, status, notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryListTransactions = `
		SELECT id, zone_name, zone_location, total_carbon, price_per_ton,
		       total_price, tax, grand_total, status, paid_at, certificate_url
		FROM transactions
		WHERE buyer_id = ? AND status = ?
		ORDER BY created_at DESC, id DESC`

	queryListTransactionsToday = `
		SELECT id, zone_name, zone_location, total_carbon, price_per_ton,
		       total_price, tax, grand_total, status, paid_at, certificate_url
		FROM transactions
		WHERE buyer_id = ? AND status = ? AND date(created_at) = date('now', 'localtime')
		ORDER BY created_at DESC, id DESC`

	queryGetTransactionStatus = `
		SELECT status FROM transactions WHERE id = ? AND buyer_id = ?`

	queryMarkTransactionPaid = `
		UPDATE transactions
		SET status = 'paid', paid_at = ?, certificate_url = ?
		WHERE id = ? AND buyer_id = ? AND status = 'pending_payment'`
)
