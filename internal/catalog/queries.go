package catalog

// Requêtes CQL du keyspace produits. gocql prépare et met en cache
// chaque requête à la première exécution.
const (
	qSelectProduct = `SELECT product_id, name, category, notes, image, is_active, low_stock_threshold, created_at, updated_at
		FROM products WHERE product_id = ?`

	qSelectProducts = `SELECT product_id, name, category, notes, image, is_active, low_stock_threshold, created_at, updated_at
		FROM products`

	qInsertProduct = `INSERT INTO products (
			product_id, name, category, notes, image, is_active, low_stock_threshold, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	qUpdateProductImage = `UPDATE products SET image = ?, updated_at = ? WHERE product_id = ?`

	qSelectVariants = `SELECT variant_id, name, type, price, stock, sku, updated_at
		FROM product_variants WHERE product_id = ?`

	qInsertVariant = `INSERT INTO product_variants (
			product_id, variant_id, name, type, price, stock, sku, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	qSelectStock = `SELECT stock FROM product_variants WHERE product_id = ? AND variant_id = ?`

	// Lightweight transaction : l'écriture n'est appliquée que si le stock n'a pas bougé
	qCASStock = `UPDATE product_variants SET stock = ?, updated_at = ?
		WHERE product_id = ? AND variant_id = ? IF stock = ?`

	qInsertMovement = `INSERT INTO stock_movements (
			product_id, id, variant_id, type, quantity, prev_stock, new_stock, reason, user_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	qSelectMovements = `SELECT product_id, id, variant_id, type, quantity, prev_stock, new_stock, reason, user_id, created_at
		FROM stock_movements WHERE product_id = ? LIMIT ?`

	qSelectOpenAlert = `SELECT id FROM stock_alerts
		WHERE product_id = ? AND variant_id = ? AND is_resolved = false LIMIT 1 ALLOW FILTERING`

	qSelectAlerts = `SELECT product_id, id, variant_id, product_name, current_stock, threshold, alert_type, is_resolved, created_at
		FROM stock_alerts WHERE product_id = ?`

	qInsertAlert = `INSERT INTO stock_alerts (
			product_id, id, variant_id, product_name, current_stock, threshold, alert_type, is_resolved, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	qResolveAlert = `UPDATE stock_alerts SET is_resolved = true, resolved_at = ? WHERE product_id = ? AND id = ?`
)

// Schema - tables du keyspace produits, appliquées au démarrage si SCYLLA_AUTO_MIGRATE=true
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		product_id uuid PRIMARY KEY,
		name text,
		category text,
		notes list<text>,
		image text,
		is_active boolean,
		low_stock_threshold int,
		created_at timestamp,
		updated_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS product_variants (
		product_id uuid,
		variant_id uuid,
		name text,
		type text,
		price double,
		stock int,
		sku text,
		updated_at timestamp,
		PRIMARY KEY (product_id, variant_id)
	)`,
	`CREATE TABLE IF NOT EXISTS stock_movements (
		product_id uuid,
		id timeuuid,
		variant_id uuid,
		type text,
		quantity int,
		prev_stock int,
		new_stock int,
		reason text,
		user_id text,
		created_at timestamp,
		PRIMARY KEY (product_id, id)
	) WITH CLUSTERING ORDER BY (id DESC)`,
	`CREATE TABLE IF NOT EXISTS stock_alerts (
		product_id uuid,
		id timeuuid,
		variant_id uuid,
		product_name text,
		current_stock int,
		threshold int,
		alert_type text,
		is_resolved boolean,
		created_at timestamp,
		resolved_at timestamp,
		PRIMARY KEY (product_id, id)
	)`,
}
