package repository

import (
	"context"
	"errors"

	"example.com/backstage/services/picking/internal/models"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

// repo is the gorm implementation of Repository
type repo struct {
	db *gorm.DB
}

// NewRepository creates a new repository instance
func NewRepository(db *gorm.DB) Repository {
	return &repo{db: db}
}

// WithTransaction runs fn inside a database transaction
func (r *repo) WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &repo{db: tx})
	})
}

// translate maps gorm errors onto repository sentinels
func translate(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.Wrap(ErrNotFound, msg)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return pkgerrors.Wrap(ErrDuplicateKey, msg)
	default:
		return pkgerrors.Wrap(err, msg)
	}
}

func (r *repo) CreateWarehouse(ctx context.Context, warehouse *models.Warehouse) error {
	return translate(r.db.WithContext(ctx).Create(warehouse).Error, "failed to create warehouse")
}

func (r *repo) FindWarehouseByID(ctx context.Context, id uuid.UUID) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	if err := r.db.WithContext(ctx).First(&warehouse, "id = ?", id).Error; err != nil {
		return nil, translate(err, "failed to find warehouse")
	}
	return &warehouse, nil
}

func (r *repo) ListWarehouses(ctx context.Context) ([]*models.Warehouse, error) {
	var warehouses []*models.Warehouse
	err := r.db.WithContext(ctx).Order("created_at, id").Find(&warehouses).Error
	return warehouses, translate(err, "failed to list warehouses")
}

func (r *repo) DeleteWarehouse(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Warehouse{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "failed to delete warehouse")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.Wrap(ErrNotFound, "failed to delete warehouse")
	}
	return nil
}

func (r *repo) DetachWarehouse(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	for _, model := range []interface{}{&models.User{}, &models.Location{}, &models.Product{}, &models.PickList{}} {
		if err := db.Model(model).Where("warehouse_id = ?", id).Update("warehouse_id", nil).Error; err != nil {
			return translate(err, "failed to detach warehouse")
		}
	}
	return nil
}

func (r *repo) CountWarehouseReferences(ctx context.Context, id uuid.UUID) (int64, error) {
	db := r.db.WithContext(ctx)
	var total int64
	for _, model := range []interface{}{&models.User{}, &models.Location{}, &models.Product{}, &models.PickList{}} {
		var n int64
		if err := db.Model(model).Where("warehouse_id = ?", id).Count(&n).Error; err != nil {
			return 0, translate(err, "failed to count warehouse references")
		}
		total += n
	}
	return total, nil
}

func (r *repo) CreateUser(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error, "failed to create user")
}

func (r *repo) UpdateUser(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error, "failed to update user")
}

func (r *repo) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, "failed to find user")
	}
	return &user, nil
}

func (r *repo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err, "failed to find user by email")
	}
	return &user, nil
}

func (r *repo) ListUsersByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).
		Where("warehouse_id = ?", warehouseID).
		Order("created_at, id").
		Find(&users).Error
	return users, translate(err, "failed to list users")
}

func (r *repo) CreateLocation(ctx context.Context, location *models.Location) error {
	return translate(r.db.WithContext(ctx).Create(location).Error, "failed to create location")
}

func (r *repo) FindLocationByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	var location models.Location
	if err := r.db.WithContext(ctx).First(&location, "id = ?", id).Error; err != nil {
		return nil, translate(err, "failed to find location")
	}
	return &location, nil
}

func (r *repo) FindLocationByCode(ctx context.Context, warehouseID uuid.UUID, code string) (*models.Location, error) {
	var location models.Location
	err := r.db.WithContext(ctx).
		Where("warehouse_id = ? AND code = ?", warehouseID, code).
		First(&location).Error
	if err != nil {
		return nil, translate(err, "failed to find location by code")
	}
	return &location, nil
}

func (r *repo) ListLocationsByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]*models.Location, error) {
	var locations []*models.Location
	err := r.db.WithContext(ctx).
		Where("warehouse_id = ?", warehouseID).
		Order("code").
		Find(&locations).Error
	return locations, translate(err, "failed to list locations")
}

func (r *repo) DeleteLocation(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Location{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "failed to delete location")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.Wrap(ErrNotFound, "failed to delete location")
	}
	return nil
}

func (r *repo) CreateProduct(ctx context.Context, product *models.Product) error {
	return translate(r.db.WithContext(ctx).Create(product).Error, "failed to create product")
}

func (r *repo) UpdateProduct(ctx context.Context, product *models.Product) error {
	return translate(r.db.WithContext(ctx).Save(product).Error, "failed to update product")
}

func (r *repo) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err, "failed to find product")
	}
	return &product, nil
}

func (r *repo) FindProductByName(ctx context.Context, warehouseID uuid.UUID, name string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("warehouse_id = ? AND name = ? AND status <> ?", warehouseID, name, models.ProductStatusInactive).
		First(&product).Error
	if err != nil {
		return nil, translate(err, "failed to find product by name")
	}
	return &product, nil
}

func (r *repo) ListProductsByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]*models.Product, error) {
	var products []*models.Product
	err := r.db.WithContext(ctx).
		Where("warehouse_id = ? AND status <> ?", warehouseID, models.ProductStatusInactive).
		Order("created_at, id").
		Find(&products).Error
	return products, translate(err, "failed to list products")
}

func (r *repo) ListProductsByLocation(ctx context.Context, locationID uuid.UUID) ([]*models.Product, error) {
	var products []*models.Product
	err := r.db.WithContext(ctx).
		Where("location_id = ?", locationID).
		Order("created_at, id").
		Find(&products).Error
	return products, translate(err, "failed to list products by location")
}

func (r *repo) ListAvailableProducts(ctx context.Context, warehouseID uuid.UUID) ([]*models.Product, error) {
	var products []*models.Product
	err := r.db.WithContext(ctx).
		Where("warehouse_id = ? AND status = ? AND quantity > 0", warehouseID, models.ProductStatusReady).
		Order("created_at, id").
		Find(&products).Error
	return products, translate(err, "failed to list available products")
}

func (r *repo) CreatePickList(ctx context.Context, pickList *models.PickList) error {
	return translate(r.db.WithContext(ctx).Create(pickList).Error, "failed to create pick list")
}

func (r *repo) UpdatePickList(ctx context.Context, pickList *models.PickList) error {
	err := r.db.WithContext(ctx).Omit("Picks").Save(pickList).Error
	return translate(err, "failed to update pick list")
}

func (r *repo) FindPickListByID(ctx context.Context, id uuid.UUID) (*models.PickList, error) {
	var pickList models.PickList
	err := r.db.WithContext(ctx).
		Preload("Picks", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		First(&pickList, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "failed to find pick list")
	}
	return &pickList, nil
}

func (r *repo) listPickLists(ctx context.Context, column string, id uuid.UUID) ([]*models.PickList, error) {
	var pickLists []*models.PickList
	err := r.db.WithContext(ctx).
		Preload("Picks", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		Where(column+" = ?", id).
		Order("created_at, id").
		Find(&pickLists).Error
	return pickLists, translate(err, "failed to list pick lists")
}

func (r *repo) ListPickListsByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]*models.PickList, error) {
	return r.listPickLists(ctx, "warehouse_id", warehouseID)
}

func (r *repo) ListPickListsByLocation(ctx context.Context, locationID uuid.UUID) ([]*models.PickList, error) {
	return r.listPickLists(ctx, "location_id", locationID)
}

func (r *repo) ListPickListsByCarrier(ctx context.Context, carrierID uuid.UUID) ([]*models.PickList, error) {
	return r.listPickLists(ctx, "carrier_id", carrierID)
}

func (r *repo) DeletePickList(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.PickList{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "failed to delete pick list")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.Wrap(ErrNotFound, "failed to delete pick list")
	}
	return nil
}

func (r *repo) UpdatePick(ctx context.Context, pick *models.Pick) error {
	return translate(r.db.WithContext(ctx).Save(pick).Error, "failed to update pick")
}

func (r *repo) FindPickByID(ctx context.Context, id uuid.UUID) (*models.Pick, error) {
	var pick models.Pick
	if err := r.db.WithContext(ctx).First(&pick, "id = ?", id).Error; err != nil {
		return nil, translate(err, "failed to find pick")
	}
	return &pick, nil
}

func (r *repo) ListPicksByPickList(ctx context.Context, pickListID uuid.UUID) ([]*models.Pick, error) {
	var picks []*models.Pick
	err := r.db.WithContext(ctx).
		Where("pick_list_id = ?", pickListID).
		Order("created_at, id").
		Find(&picks).Error
	return picks, translate(err, "failed to list picks")
}

func (r *repo) DetachPicks(ctx context.Context, pickListID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Model(&models.Pick{}).
		Where("pick_list_id = ?", pickListID).
		Update("pick_list_id", nil).Error
	return translate(err, "failed to detach picks")
}

func (r *repo) CreateCarrier(ctx context.Context, carrier *models.Carrier) error {
	return translate(r.db.WithContext(ctx).Create(carrier).Error, "failed to create carrier")
}

func (r *repo) FindCarrierByID(ctx context.Context, id uuid.UUID) (*models.Carrier, error) {
	var carrier models.Carrier
	if err := r.db.WithContext(ctx).First(&carrier, "id = ?", id).Error; err != nil {
		return nil, translate(err, "failed to find carrier")
	}
	return &carrier, nil
}

func (r *repo) FindCarrierByIdentifier(ctx context.Context, identifier int) (*models.Carrier, error) {
	var carrier models.Carrier
	if err := r.db.WithContext(ctx).Where("identifier = ?", identifier).First(&carrier).Error; err != nil {
		return nil, translate(err, "failed to find carrier by identifier")
	}
	return &carrier, nil
}

func (r *repo) ListCarriers(ctx context.Context) ([]*models.Carrier, error) {
	var carriers []*models.Carrier
	err := r.db.WithContext(ctx).Order("identifier").Find(&carriers).Error
	return carriers, translate(err, "failed to list carriers")
}

func (r *repo) DeleteCarrier(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Carrier{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "failed to delete carrier")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.Wrap(ErrNotFound, "failed to delete carrier")
	}
	return nil
}
