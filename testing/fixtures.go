package testing

import (
	"fmt"
	"math/rand"

	"github.com/amirphl/tailwind-mail/models"
	"github.com/amirphl/tailwind-mail/utils"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestContact creates a contact with the given email and subscription flag
func (tf *TestFixtures) CreateTestContact(email string, subscribed bool) (*models.Contact, error) {
	key, err := gonanoid.New(utils.ContactKeyLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate contact key: %w", err)
	}

	contact := &models.Contact{
		Email:      utils.NormalizeEmail(email),
		Key:        key,
		Name:       utils.ToPtr("Test Contact"),
		Subscribed: utils.ToPtr(subscribed),
	}

	if err := tf.DB.DB.Create(contact).Error; err != nil {
		return nil, fmt.Errorf("failed to create test contact: %w", err)
	}

	return contact, nil
}

// CreateRandomContact creates a subscribed contact with a unique address
func (tf *TestFixtures) CreateRandomContact() (*models.Contact, error) {
	return tf.CreateTestContact(fmt.Sprintf("contact.%09d@example.com", rand.Intn(1000000000)), true)
}

// CreateTestTag creates a tag whose slug is derived from name
func (tf *TestFixtures) CreateTestTag(name string) (*models.Tag, error) {
	tag := &models.Tag{
		Slug: utils.Slugify(name),
		Name: name,
	}

	if err := tf.DB.DB.Create(tag).Error; err != nil {
		return nil, fmt.Errorf("failed to create test tag: %w", err)
	}

	return tag, nil
}

// TagContact attaches contact to tag
func (tf *TestFixtures) TagContact(contact *models.Contact, tag *models.Tag) error {
	membership := &models.Tagged{ContactID: contact.ID, TagID: tag.ID}
	if err := tf.DB.DB.Create(membership).Error; err != nil {
		return fmt.Errorf("failed to tag contact %d: %w", contact.ID, err)
	}
	return nil
}

// CountRows returns the number of rows in the table backing model
func (tf *TestFixtures) CountRows(model any) (int64, error) {
	var count int64
	err := tf.DB.DB.Model(model).Count(&count).Error
	return count, err
}
