package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"smallbiznis-backoffice/pkg/permission"
	"smallbiznis-backoffice/pkg/validation"
	"smallbiznis-backoffice/services/account"
	"smallbiznis-backoffice/services/asset"
	"smallbiznis-backoffice/services/license"
	"smallbiznis-backoffice/services/member"

	"github.com/bwmarrin/snowflake"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type File struct {
	Account struct {
		Name string `yaml:"name"`
		Slug string `yaml:"slug"`
	} `yaml:"account"`
	Users    []SeedUser    `yaml:"users"`
	Assets   []SeedAsset   `yaml:"assets"`
	Licenses []SeedLicense `yaml:"licenses"`
}

type SeedUser struct {
	Email       string `yaml:"email"`
	Role        string `yaml:"role"`
	DisplayName string `yaml:"display_name"`
	JobTitle    string `yaml:"job_title"`
}

type SeedAsset struct {
	Name         string `yaml:"name"`
	Category     string `yaml:"category"`
	SerialNumber string `yaml:"serial_number"`
	AssignedTo   string `yaml:"assigned_to"`
}

type SeedLicense struct {
	Name           string   `yaml:"name"`
	Vendor         string   `yaml:"vendor"`
	LicenseKey     string   `yaml:"license_key"`
	LicenseType    string   `yaml:"license_type"`
	PurchaseDate   string   `yaml:"purchase_date"`
	ExpirationDate string   `yaml:"expiration_date"`
	Cost           *float64 `yaml:"cost"`
	AssignedTo     []string `yaml:"assigned_to"`
}

func loadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if f.Account.Slug == "" {
		return nil, errors.New("account.slug is required")
	}
	return &f, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Seed writes f into db. Rows that already exist are reused, so running it
// twice is harmless. It returns the user ids keyed by email.
func Seed(ctx context.Context, db *gorm.DB, node *snowflake.Node, f *File, now time.Time) (map[string]string, error) {
	users := map[string]string{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acct := account.Account{}
		err := tx.Where(account.Account{Slug: f.Account.Slug}).
			Attrs(account.Account{ID: node.Generate().String(), Name: f.Account.Name}).
			FirstOrCreate(&acct).Error
		if err != nil {
			return fmt.Errorf("account: %w", err)
		}

		for _, su := range f.Users {
			role := permission.Role(su.Role)
			if !role.Valid() {
				return fmt.Errorf("user %s: unknown role %q", su.Email, su.Role)
			}
			u := member.User{}
			err := tx.Where(member.User{Email: su.Email}).
				Attrs(member.User{ID: node.Generate().String()}).
				FirstOrCreate(&u).Error
			if err != nil {
				return fmt.Errorf("user %s: %w", su.Email, err)
			}
			users[su.Email] = u.ID

			m := member.Membership{}
			err = tx.Where(member.Membership{AccountID: acct.ID, UserID: u.ID}).
				Attrs(member.Membership{ID: node.Generate().String(), Role: role, JoinedAt: now}).
				FirstOrCreate(&m).Error
			if err != nil {
				return fmt.Errorf("membership %s: %w", su.Email, err)
			}

			p := member.Profile{}
			err = tx.Where(member.Profile{UserID: u.ID}).
				Attrs(member.Profile{DisplayName: optional(su.DisplayName), JobTitle: optional(su.JobTitle)}).
				FirstOrCreate(&p).Error
			if err != nil {
				return fmt.Errorf("profile %s: %w", su.Email, err)
			}
		}

		for _, sa := range f.Assets {
			a := asset.Asset{Status: asset.StatusAvailable}
			if sa.AssignedTo != "" {
				userID, ok := users[sa.AssignedTo]
				if !ok {
					return fmt.Errorf("asset %s: unknown user %s", sa.Name, sa.AssignedTo)
				}
				a.Status = asset.StatusAssigned
				a.AssignedTo = &userID
				a.AssignedAt = &now
			}
			a.ID = node.Generate().String()
			a.Category = sa.Category
			a.SerialNumber = optional(sa.SerialNumber)
			err := tx.Where(asset.Asset{AccountID: acct.ID, Name: sa.Name}).Attrs(a).FirstOrCreate(&asset.Asset{}).Error
			if err != nil {
				return fmt.Errorf("asset %s: %w", sa.Name, err)
			}
		}

		for _, sl := range f.Licenses {
			purchase, err := validation.ParseDate(sl.PurchaseDate)
			if err != nil {
				return fmt.Errorf("license %s: purchase_date: %w", sl.Name, err)
			}
			expiration, err := validation.ParseDate(sl.ExpirationDate)
			if err != nil {
				return fmt.Errorf("license %s: expiration_date: %w", sl.Name, err)
			}
			l := license.License{}
			err = tx.Where(license.License{AccountID: acct.ID, LicenseKey: sl.LicenseKey}).
				Attrs(license.License{
					ID:             node.Generate().String(),
					Name:           sl.Name,
					Vendor:         sl.Vendor,
					LicenseType:    license.Type(sl.LicenseType),
					PurchaseDate:   purchase,
					ExpirationDate: expiration,
					Cost:           sl.Cost,
				}).
				FirstOrCreate(&l).Error
			if err != nil {
				return fmt.Errorf("license %s: %w", sl.Name, err)
			}

			for _, email := range sl.AssignedTo {
				userID, ok := users[email]
				if !ok {
					return fmt.Errorf("license %s: unknown user %s", sl.Name, email)
				}
				err := tx.Where(license.Assignment{LicenseID: l.ID, AssignedToUser: &userID}).
					Attrs(license.Assignment{ID: node.Generate().String(), AccountID: acct.ID, AssignedAt: now}).
					FirstOrCreate(&license.Assignment{}).Error
				if err != nil {
					return fmt.Errorf("license %s: assign %s: %w", sl.Name, email, err)
				}
			}
		}
		return nil
	})
	return users, err
}
