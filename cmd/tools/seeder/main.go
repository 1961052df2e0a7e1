package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("ping db: %v", err)
	}

	seedProducts(db)
	seedCustomers(db)
	seedSuppliers(db)

	log.Println("seeding completed successfully")
}

func seedProducts(db *sql.DB) {
	fmt.Println("Seeding products...")

	type variation struct {
		Label string
		Price float64
	}
	products := []struct {
		Name       string
		Mode       string
		BasePrice  float64
		Unit       string
		Variations []variation
	}{
		{"Cartão de visita", "quantity", 0.35, "un", []variation{
			{"Couchê 250g fosco", 0.35},
			{"Couchê 300g verniz", 0.45},
		}},
		{"Panfleto A5", "quantity", 0.25, "un", []variation{
			{"Couchê 115g 4x0", 0.25},
			{"Couchê 115g 4x4", 0.38},
		}},
		{"Lona 440g", "area", 45.00, "m²", nil},
		{"Adesivo vinil", "area", 60.00, "m²", []variation{
			{"Vinil brilho", 60.00},
			{"Vinil fosco laminado", 85.00},
		}},
		{"Encadernação espiral", "quantity", 8.50, "un", nil},
	}

	for _, p := range products {
		var id string
		err := db.QueryRow(`
			INSERT INTO products (name, mode, base_price, unit, active)
			VALUES ($1, $2, $3, $4, true)
			ON CONFLICT (lower(name)) DO UPDATE SET base_price = EXCLUDED.base_price
			RETURNING id`, p.Name, p.Mode, p.BasePrice, p.Unit).Scan(&id)
		if err != nil {
			log.Fatalf("seed product %q: %v", p.Name, err)
		}
		if _, err := db.Exec(`DELETE FROM product_variations WHERE product_id = $1`, id); err != nil {
			log.Fatalf("reset variations for %q: %v", p.Name, err)
		}
		for i, v := range p.Variations {
			if _, err := db.Exec(`
				INSERT INTO product_variations (product_id, label, unit_price, position)
				VALUES ($1, $2, $3, $4)`, id, v.Label, v.Price, i); err != nil {
				log.Fatalf("seed variation %q: %v", v.Label, err)
			}
		}
	}
}

func seedCustomers(db *sql.DB) {
	fmt.Println("Seeding customers...")

	customers := []struct {
		Name     string
		Document string
		Phone    string
	}{
		{"Maria Oliveira", "123.456.789-00", "(11) 98888-0001"},
		{"João Pereira", "987.654.321-00", "(11) 98888-0002"},
		{"Padaria Pão Quente LTDA", "12.345.678/0001-90", "(11) 3333-0003"},
		{"Ana Souza", "", "(11) 98888-0004"},
	}

	for _, c := range customers {
		if _, err := db.Exec(`
			INSERT INTO customers (name, document, phone)
			SELECT $1, $2, $3
			WHERE NOT EXISTS (SELECT 1 FROM customers WHERE name = $1)`,
			c.Name, c.Document, c.Phone); err != nil {
			log.Fatalf("seed customer %q: %v", c.Name, err)
		}
	}
}

func seedSuppliers(db *sql.DB) {
	fmt.Println("Seeding suppliers...")

	suppliers := []struct {
		Name     string
		Document string
	}{
		{"Distribuidora de Papéis SP", "23.456.789/0001-01"},
		{"Tintas e Insumos Gráficos", "34.567.890/0001-12"},
	}

	for _, s := range suppliers {
		if _, err := db.Exec(`
			INSERT INTO suppliers (name, document)
			SELECT $1, $2
			WHERE NOT EXISTS (SELECT 1 FROM suppliers WHERE name = $1)`,
			s.Name, s.Document); err != nil {
			log.Fatalf("seed supplier %q: %v", s.Name, err)
		}
	}
}
