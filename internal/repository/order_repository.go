package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/happybuttons/orderflow/internal/models"
	"github.com/happybuttons/orderflow/pkg/logger"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrStorage  = errors.New("storage error")
)

// OrderRepository persists orders as one JSON file per order id under a
// storage directory. The file layout is an external contract: dashboards
// and other collaborators scan the directory directly.
type OrderRepository struct {
	dir    string
	logger logger.Logger
}

// NewOrderRepository creates an OrderRepository rooted at dir, creating it if needed
func NewOrderRepository(dir string, logger logger.Logger) (*OrderRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return &OrderRepository{
		dir:    dir,
		logger: logger,
	}, nil
}

// Save writes the order to disk. The write goes to a temp file first and is
// renamed into place, so readers never observe a partially written order.
func (r *OrderRepository) Save(order *models.Order) error {
	data, err := json.MarshalIndent(order, "", "  ")

	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	path := r.orderPath(order.ID)
	tmp, err := os.CreateTemp(r.dir, order.ID+".*.tmp")

	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return nil
}

// Load reads a single order by id
func (r *OrderRepository) Load(id string) (*models.Order, error) {
	data, err := os.ReadFile(r.orderPath(id))

	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	var order models.Order

	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return &order, nil
}

// LoadAll scans the storage directory and reconstructs every persisted order.
// Files that fail to parse are skipped and counted; a single corrupt file
// must not abort loading the rest.
func (r *OrderRepository) LoadAll() ([]*models.Order, int, error) {
	entries, err := os.ReadDir(r.dir)

	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	var orders []*models.Order
	skipped := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(r.dir, entry.Name()))

		if err != nil {
			r.logger.Warn("Failed to read order file, skipping", "file", entry.Name(), "error", err)
			skipped++
			continue
		}

		var order models.Order

		if err := json.Unmarshal(data, &order); err != nil {
			r.logger.Warn("Failed to parse order file, skipping", "file", entry.Name(), "error", err)
			skipped++
			continue
		}

		orders = append(orders, &order)
	}

	return orders, skipped, nil
}

func (r *OrderRepository) orderPath(id string) string {
	return filepath.Join(r.dir, id+".json")
}
