package testutil

import (
	"path/filepath"
	"testing"

	"istasyon-backend/internal/database"
	"istasyon-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenDB, test başına geçici bir SQLite veritabanı açar ve şemayı uygular.
// SQLite tek yazar desteklediği için havuz tek bağlantıyla sınırlanır; eşzamanlı
// transaction'lar bu bağlantıyı sırayla alır.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=1&_busy_timeout=5000"), database.Config())
	if err != nil {
		t.Fatalf("sqlite açılamadı: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB alınamadı: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate başarısız: %v", err)
	}
	return db
}

// Fixture, bir istasyonun tipik referans verisini toplar.
type Fixture struct {
	DB *gorm.DB

	Station    models.Station
	Other      models.Station // kiracılar arası erişim testleri için
	Admin      models.User
	Manager    models.User
	Attendant  models.User
	Attendant2 models.User
	Outsider   models.User // Other istasyonun yöneticisi

	Petrol models.FuelType // fiyat 100
	Diesel models.FuelType // fiyat 90

	NozzleA        models.Nozzle // benzin, sayaç 1000
	NozzleB        models.Nozzle // motorin, sayaç 500
	NozzleC        models.Nozzle // benzin, sayaç 200
	InactiveNozzle models.Nozzle
	ForeignNozzle  models.Nozzle // Other istasyona ait

	Cash models.PaymentMethod
	Card models.PaymentMethod

	Note200 models.Denomination
	Note100 models.Denomination
	Note50  models.Denomination
}

// Seed, OpenDB üzerine standart fixture'ı yazar.
func Seed(t *testing.T) *Fixture {
	t.Helper()
	db := OpenDB(t)
	f := &Fixture{DB: db}

	f.Station = models.Station{Name: "Merkez İstasyon"}
	f.Other = models.Station{Name: "Şube İstasyon"}
	mustCreate(t, db, &f.Station)
	mustCreate(t, db, &f.Other)

	f.Admin = models.User{StationID: f.Station.ID, Name: "Ayşe Yönetici", Email: "admin@istasyon.test", PasswordHash: "x", Role: models.RoleAdmin}
	f.Manager = models.User{StationID: f.Station.ID, Name: "Mehmet Müdür", Email: "manager@istasyon.test", PasswordHash: "x", Role: models.RoleManager}
	f.Attendant = models.User{StationID: f.Station.ID, Name: "Ali Pompacı", Email: "ali@istasyon.test", PasswordHash: "x", Role: models.RoleAttendant}
	f.Attendant2 = models.User{StationID: f.Station.ID, Name: "Veli Pompacı", Email: "veli@istasyon.test", PasswordHash: "x", Role: models.RoleAttendant}
	f.Outsider = models.User{StationID: f.Other.ID, Name: "Dış Yönetici", Email: "other@istasyon.test", PasswordHash: "x", Role: models.RoleAdmin}
	for _, u := range []*models.User{&f.Admin, &f.Manager, &f.Attendant, &f.Attendant2, &f.Outsider} {
		mustCreate(t, db, u)
	}

	f.Petrol = models.FuelType{StationID: f.Station.ID, Name: "Benzin", Price: decimal.NewFromInt(100)}
	f.Diesel = models.FuelType{StationID: f.Station.ID, Name: "Motorin", Price: decimal.NewFromInt(90)}
	mustCreate(t, db, &f.Petrol)
	mustCreate(t, db, &f.Diesel)
	otherFuel := models.FuelType{StationID: f.Other.ID, Name: "Benzin", Price: decimal.NewFromInt(105)}
	mustCreate(t, db, &otherFuel)

	f.NozzleA = newNozzle(f.Station.ID, "P1-A", f.Petrol.ID, 1000, true)
	f.NozzleB = newNozzle(f.Station.ID, "P1-B", f.Diesel.ID, 500, true)
	f.NozzleC = newNozzle(f.Station.ID, "P2-A", f.Petrol.ID, 200, true)
	f.InactiveNozzle = newNozzle(f.Station.ID, "P9-X", f.Petrol.ID, 0, false)
	f.ForeignNozzle = newNozzle(f.Other.ID, "D1-A", otherFuel.ID, 50, true)
	for _, n := range []*models.Nozzle{&f.NozzleA, &f.NozzleB, &f.NozzleC, &f.InactiveNozzle, &f.ForeignNozzle} {
		mustCreate(t, db, n)
	}

	f.Cash = models.PaymentMethod{StationID: f.Station.ID, Name: "Nakit", IsCash: true, IsActive: true}
	f.Card = models.PaymentMethod{StationID: f.Station.ID, Name: "Kredi Kartı", IsActive: true}
	mustCreate(t, db, &f.Cash)
	mustCreate(t, db, &f.Card)

	f.Note200 = models.Denomination{StationID: f.Station.ID, Label: "200 TL", Value: decimal.NewFromInt(200)}
	f.Note100 = models.Denomination{StationID: f.Station.ID, Label: "100 TL", Value: decimal.NewFromInt(100)}
	f.Note50 = models.Denomination{StationID: f.Station.ID, Label: "50 TL", Value: decimal.NewFromInt(50)}
	for _, d := range []*models.Denomination{&f.Note200, &f.Note100, &f.Note50} {
		mustCreate(t, db, d)
	}

	return f
}

// Reload, tabancanın güncel halini okur.
func (f *Fixture) Reload(t *testing.T, n models.Nozzle) models.Nozzle {
	t.Helper()
	var fresh models.Nozzle
	if err := f.DB.First(&fresh, n.ID).Error; err != nil {
		t.Fatalf("tabanca okunamadı: %v", err)
	}
	return fresh
}

// Dec, test okunabilirliği için string'den decimal üretir.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newNozzle(stationID uint, code string, fuelTypeID uint, reading int64, active bool) models.Nozzle {
	return models.Nozzle{
		StationID:      stationID,
		Code:           code,
		DispenserName:  "Pompa " + code[:2],
		FuelTypeID:     fuelTypeID,
		CurrentReading: decimal.NewFromInt(reading),
		IsActive:       active,
		IsAvailable:    true,
	}
}

func mustCreate(t *testing.T, db *gorm.DB, v any) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("seed oluşturulamadı (%T): %v", v, err)
	}
}
