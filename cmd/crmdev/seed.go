package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BigLep01/CRMdev/internal/logging"
	"github.com/BigLep01/CRMdev/internal/query"
)

func newSeedCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo users, companies, contacts, deals and notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.memory {
				return errors.New("seed needs a database; --memory stores are seeded by serve")
			}
			cfg, err := loadConfig(f)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			store, closeStore, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()
			return seed(cmd.Context(), store, log)
		},
	}
}

type demoCompany struct {
	name, size, industry, businessType, country, website string
	revenue                                              float64
	contacts                                             []string
	deals                                                []demoDeal
	notes                                                []string
}

type demoDeal struct {
	title, stage string
	amount       float64
}

var demoUsers = []string{"Ada Lovelace", "Grace Hopper", "Alan Turing", "Katherine Johnson"}

var demoCompanies = []demoCompany{
	{
		name: "Acme Corporation", size: "ENTERPRISE", industry: "INDUSTRIAL_MANUFACTURING",
		businessType: "B2B", country: "United States", website: "https://acme.example.com",
		revenue:  48500000,
		contacts: []string{"Wile Coyote", "Road Runner", "Elmer Fudd"},
		deals:    []demoDeal{{"Anvil supply contract", "NEGOTIATION", 125000}, {"Rocket skates", "WON", 18500}},
		notes:    []string{"Annual review scheduled for Q3.", "Procurement asked for volume pricing."},
	},
	{
		name: "Globex", size: "LARGE", industry: "ENERGY",
		businessType: "B2G", country: "Germany", website: "https://globex.example.com",
		revenue:  12750000,
		contacts: []string{"Hank Scorpio", "Frank Grimes"},
		deals:    []demoDeal{{"Grid monitoring pilot", "PROPOSAL", 64000}},
		notes:    []string{"Intro call went well, follow up with a demo."},
	},
	{
		name: "Initech", size: "MEDIUM", industry: "TECHNOLOGY",
		businessType: "B2B", country: "United Kingdom",
		revenue:  2300000,
		contacts: []string{"Bill Lumbergh", "Peter Gibbons", "Milton Waddams"},
		deals:    []demoDeal{{"TPS report automation", "LOST", 22000}},
	},
	{
		name: "Umbrella Health", size: "SMALL", industry: "HEALTHCARE",
		businessType: "B2C", country: "France",
		contacts: []string{"Alice Abernathy"},
	},
	{
		name: "Stark Logistics", industry: "LOGISTICS",
	},
}

// seed inserts the demo dataset through w.
func seed(ctx context.Context, w query.Writer, log *zap.Logger) error {
	now := time.Now().UTC()
	insert := func(collection string, rec query.Record) (string, error) {
		if rec.ID() == "" {
			rec["id"] = uuid.NewString()
		}
		res := w.Insert(ctx, collection, rec)
		if !res.OK() {
			return "", fmt.Errorf("seed %s: %w", collection, res.Err)
		}
		return res.First().ID(), nil
	}

	userIDs := make([]string, len(demoUsers))
	for i, name := range demoUsers {
		id := uuid.NewString()
		if _, err := insert("users", query.Record{
			"id":        id,
			"name":      name,
			"avatarUrl": "https://i.pravatar.cc/64?u=" + id,
		}); err != nil {
			return err
		}
		userIDs[i] = id
	}

	var contacts, deals, notes int
	for i, c := range demoCompanies {
		rec := query.Record{
			"name":         c.name,
			"salesOwnerId": userIDs[i%len(userIDs)],
		}
		setIf(rec, "companySize", c.size)
		setIf(rec, "industry", c.industry)
		setIf(rec, "businessType", c.businessType)
		setIf(rec, "country", c.country)
		setIf(rec, "website", c.website)
		if c.revenue > 0 {
			rec["totalRevenue"] = c.revenue
		}
		companyID, err := insert("companies", rec)
		if err != nil {
			return err
		}

		for _, name := range c.contacts {
			if _, err := insert("contacts", query.Record{"name": name, "companyId": companyID}); err != nil {
				return err
			}
			contacts++
		}
		for _, d := range c.deals {
			if _, err := insert("deals", query.Record{"title": d.title, "stage": d.stage, "amount": d.amount, "companyId": companyID}); err != nil {
				return err
			}
			deals++
		}
		for j, text := range c.notes {
			if _, err := insert("companynotes", query.Record{
				"note":      text,
				"companyId": companyID,
				"createdBy": demoUsers[(i+j)%len(demoUsers)],
				"createdAt": now.Add(-time.Duration(len(c.notes)-j) * 24 * time.Hour).Format(time.RFC3339),
			}); err != nil {
				return err
			}
			notes++
		}
	}

	log.Info("seeded demo data",
		zap.Int("users", len(demoUsers)),
		zap.Int("companies", len(demoCompanies)),
		zap.Int("contacts", contacts),
		zap.Int("deals", deals),
		zap.Int("notes", notes))
	return nil
}

func setIf(rec query.Record, field, value string) {
	if value != "" {
		rec[field] = value
	}
}
