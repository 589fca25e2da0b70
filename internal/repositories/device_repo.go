package repositories

import (
    "context"
    "errors"
    "sync"
    "time"

    "github.com/yemyoaung/managing-vehicle-tracking-gps-vendor-svc/internal/gpsvendor"
    "go.mongodb.org/mongo-driver/bson"
    "go.mongodb.org/mongo-driver/bson/primitive"
    "go.mongodb.org/mongo-driver/mongo"
    "go.mongodb.org/mongo-driver/mongo/options"
)

var (
    ErrDeviceNotFound = errors.New("device not found")
    ErrInvalidDevice  = errors.New("device box id is required")
)

// RegisteredDevice is a device the vendor accepted at registration
type RegisteredDevice struct {
    ID           primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
    BoxID        string                 `bson:"box_id" json:"box_id"`
    Dialect      gpsvendor.Dialect      `bson:"dialect" json:"dialect"`
    ResultCode   string                 `bson:"result_code" json:"result_code"`
    Device       gpsvendor.DeviceRecord `bson:"device" json:"device"`
    RegisteredAt time.Time              `bson:"registered_at" json:"registered_at"`
    UpdatedAt    time.Time              `bson:"updated_at" json:"updated_at"`
}

func (d *RegisteredDevice) Validate() error {
    if d.BoxID == "" {
        return ErrInvalidDevice
    }
    return nil
}

type DeviceRepository interface {
    SaveDevice(ctx context.Context, device *RegisteredDevice) error
    FindDeviceByBoxID(ctx context.Context, boxID string, device *RegisteredDevice) error
}

type MongoDeviceRepository struct {
    collection *mongo.Collection
}

func NewMongoDeviceRepository(ctx context.Context, db *mongo.Database) (*MongoDeviceRepository, error) {
    devicesCollection := db.Collection("devices")

    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()

    indexModel := mongo.IndexModel{
        Keys:    bson.M{"box_id": 1},
        Options: options.Index().SetUnique(true),
    }

    _, err := devicesCollection.Indexes().CreateOne(ctx, indexModel)
    if err != nil {
        return nil, err
    }
    return &MongoDeviceRepository{
        collection: devicesCollection,
    }, nil
}

// SaveDevice upserts by box id, a re-registration overwrites the stored record
func (repo *MongoDeviceRepository) SaveDevice(ctx context.Context, device *RegisteredDevice) error {
    if err := device.Validate(); err != nil {
        return err
    }
    now := time.Now().UTC()
    result, err := repo.collection.UpdateOne(
        ctx,
        bson.M{"box_id": device.BoxID},
        bson.M{
            "$set": bson.M{
                "dialect":     device.Dialect,
                "result_code": device.ResultCode,
                "device":      device.Device,
                "updated_at":  now,
            },
            "$setOnInsert": bson.M{"registered_at": now},
        },
        options.Update().SetUpsert(true),
    )
    if err != nil {
        return err
    }
    if id, ok := result.UpsertedID.(primitive.ObjectID); ok {
        device.ID = id
        device.RegisteredAt = now
    }
    device.UpdatedAt = now
    return nil
}

func (repo *MongoDeviceRepository) FindDeviceByBoxID(
    ctx context.Context,
    boxID string,
    device *RegisteredDevice,
) error {
    err := repo.collection.FindOne(ctx, bson.M{"box_id": boxID}).Decode(device)
    if errors.Is(err, mongo.ErrNoDocuments) {
        return ErrDeviceNotFound
    }
    if err != nil {
        return err
    }
    return device.Validate()
}

// MemoryDeviceRepository keeps registrations for the lifetime of the process
type MemoryDeviceRepository struct {
    mu      sync.RWMutex
    devices map[string]RegisteredDevice
}

func NewMemoryDeviceRepository() *MemoryDeviceRepository {
    return &MemoryDeviceRepository{devices: make(map[string]RegisteredDevice)}
}

func (repo *MemoryDeviceRepository) SaveDevice(_ context.Context, device *RegisteredDevice) error {
    if err := device.Validate(); err != nil {
        return err
    }
    repo.mu.Lock()
    defer repo.mu.Unlock()

    now := time.Now().UTC()
    if existing, ok := repo.devices[device.BoxID]; ok {
        device.ID = existing.ID
        device.RegisteredAt = existing.RegisteredAt
    } else {
        device.ID = primitive.NewObjectID()
        device.RegisteredAt = now
    }
    device.UpdatedAt = now
    repo.devices[device.BoxID] = *device
    return nil
}

func (repo *MemoryDeviceRepository) FindDeviceByBoxID(
    _ context.Context,
    boxID string,
    device *RegisteredDevice,
) error {
    repo.mu.RLock()
    defer repo.mu.RUnlock()

    stored, ok := repo.devices[boxID]
    if !ok {
        return ErrDeviceNotFound
    }
    *device = stored
    return nil
}
