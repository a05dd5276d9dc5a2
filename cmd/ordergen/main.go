// cmd/ordergen/main.go
//
// ordergen builds reorder suggestions from the command line, for supplier
// runs that do not go through the web UI.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/harveystores/reorder-backend/internal/cache"
	"github.com/harveystores/reorder-backend/internal/config"
	"github.com/harveystores/reorder-backend/internal/repository/postgres"
	"github.com/harveystores/reorder-backend/internal/service"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newOrderService(c *cli.Context) (*service.OrderService, error) {
	db, err := postgres.NewDBFromURL(c.String("db-url"))
	if err != nil {
		return nil, err
	}

	return service.NewOrderService(
		postgres.NewOrderRepository(db),
		postgres.NewSalesRepository(db),
		config.Load().Order,
		cache.NewNoopSessionStatisticsCache(),
	), nil
}

func generate(c *cli.Context) error {
	orderDate := time.Now()
	if raw := c.String("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return fmt.Errorf("invalid --date, expected YYYY-MM-DD: %w", err)
		}
		orderDate = parsed
	}

	svc, err := newOrderService(c)
	if err != nil {
		return err
	}

	result, err := svc.BuildSession(c.Context, c.String("supplier"), orderDate, c.Int64("user"))
	if err != nil {
		return fmt.Errorf("failed to build order session: %w", err)
	}

	session := result.Session
	fmt.Printf("session %d: %d items, total value %.2f\n", session.ID, session.TotalItems, session.TotalValue)
	for _, skipped := range result.Skipped {
		fmt.Printf("skipped %s: %s\n", skipped.ProductID, skipped.Reason)
	}

	if path := c.String("csv"); path != "" {
		return writeExport(c, svc, session.ID, path)
	}

	return nil
}

func export(c *cli.Context) error {
	svc, err := newOrderService(c)
	if err != nil {
		return err
	}

	path := c.String("csv")
	if path == "" {
		path = filepath.Join(config.Load().Order.ExportDir, fmt.Sprintf("order_session_%d.csv", c.Int64("session")))
	}

	return writeExport(c, svc, c.Int64("session"), path)
}

func writeExport(c *cli.Context, svc *service.OrderService, sessionID int64, path string) error {
	csvData, err := svc.ExportCSV(c.Context, sessionID)
	if err != nil {
		return fmt.Errorf("failed to export session %d: %w", sessionID, err)
	}

	if err := os.WriteFile(path, []byte(csvData), 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	fmt.Printf("wrote %s\n", path)
	return nil
}

func complete(c *cli.Context) error {
	svc, err := newOrderService(c)
	if err != nil {
		return err
	}

	session, err := svc.Complete(c.Context, c.Int64("session"))
	if err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}

	fmt.Printf("session %d completed (%d items, %.2f)\n", session.ID, session.TotalItems, session.TotalValue)
	return nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "ordergen",
		Usage: "Generate and export supplier reorder suggestions",
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Build a draft order session for a supplier",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{Name: "supplier", Usage: "Supplier ID", Required: true},
					&cli.Int64Flag{Name: "user", Usage: "Acting user ID", Required: true},
					&cli.StringFlag{Name: "date", Usage: "Order date (YYYY-MM-DD), defaults to today"},
					&cli.StringFlag{Name: "csv", Usage: "Also write the CSV export to this path"},
				},
				Action: generate,
			},
			{
				Name:  "export",
				Usage: "Export an existing session to CSV",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.Int64Flag{Name: "session", Usage: "Order session ID", Required: true},
					&cli.StringFlag{Name: "csv", Usage: "Output path, defaults to the export dir"},
				},
				Action: export,
			},
			{
				Name:  "complete",
				Usage: "Mark a draft session as completed",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.Int64Flag{Name: "session", Usage: "Order session ID", Required: true},
				},
				Action: complete,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
