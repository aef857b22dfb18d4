package database

const (
	// Connection queries
	queryInsertConnection = `
		INSERT INTO connections (id, user_id, provider, encrypted_credentials, status, expires_at, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetConnection = `
		SELECT id, user_id, provider, encrypted_credentials, status, last_synced_at, expires_at, error_message, created_at, updated_at
		FROM connections
		WHERE id = ? AND user_id = ?`

	queryListActiveConnections = `
		SELECT id, user_id, provider, encrypted_credentials, status, last_synced_at, expires_at, error_message, created_at, updated_at
		FROM connections
		WHERE status = 'active'
		ORDER BY created_at`

	queryUpdateConnectionStatus = `
		UPDATE connections
		SET status = ?, error_message = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	queryMarkConnectionSynced = `
		UPDATE connections
		SET last_synced_at = ?, status = 'active', error_message = '', updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	queryDisconnectConnection = `
		UPDATE connections
		SET status = 'disconnected', encrypted_credentials = '', updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?`

	// Sync log queries
	queryInsertSyncLog = `
		INSERT INTO sync_logs (id, user_id, connection_id, sync_type, status, records_synced, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryFinalizeSyncLog = `
		UPDATE sync_logs
		SET status = ?, records_synced = ?, error_message = ?, completed_at = ?
		WHERE id = ? AND completed_at IS NULL`

	// Account queries: the external account id is the upsert key
	queryUpsertAccount = `
		INSERT INTO accounts (id, user_id, name, type, institution, account_number_last4, balance, currency, is_active, api_connection_id, last_synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			institution = excluded.institution,
			account_number_last4 = excluded.account_number_last4,
			balance = excluded.balance,
			currency = excluded.currency,
			is_active = excluded.is_active,
			api_connection_id = excluded.api_connection_id,
			last_synced_at = excluded.last_synced_at`

	queryGetAccount = `
		SELECT id, user_id, name, type, institution, account_number_last4, balance, currency, is_active, api_connection_id, last_synced_at
		FROM accounts
		WHERE id = ? AND user_id = ?`

	// Transaction queries: the composite identity key dedupes repeated syncs
	queryUpsertTransaction = `
		INSERT INTO transactions (id, user_id, account_id, amount, type, description, merchant, transaction_date, external_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_id, account_id, transaction_date, amount) DO UPDATE SET
			type = excluded.type,
			description = excluded.description,
			merchant = excluded.merchant`

	queryGetAccountTransactions = `
		SELECT id, user_id, account_id, amount, type, description, merchant, transaction_date, external_id
		FROM transactions
		WHERE user_id = ? AND account_id = ?
		ORDER BY transaction_date DESC
		LIMIT ? OFFSET ?`

	// CSV import queries
	queryInsertCsvImport = `
		INSERT INTO csv_imports (id, user_id, filename, status, column_mapping, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryGetCsvImport = `
		SELECT id, user_id, filename, status, column_mapping, total_rows, imported_rows, error_rows, created_at
		FROM csv_imports
		WHERE id = ? AND user_id = ?`

	queryUpdateCsvImportStatus = `
		UPDATE csv_imports
		SET status = ?
		WHERE id = ?`

	queryFinalizeCsvImport = `
		UPDATE csv_imports
		SET status = ?, total_rows = ?, imported_rows = ?, error_rows = ?
		WHERE id = ?`
)
