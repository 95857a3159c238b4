package main

import (
	"context"
	"strings"

	"github.com/desertthunder/allezgo/internal/models"
	"github.com/urfave/cli/v3"
)

const passwordMask = "********"

func mask(v string) string {
	if v == "" {
		return ""
	}
	return passwordMask
}

// CredentialsShow prints the remembered record with passwords masked.
func (r *Runner) CredentialsShow(ctx context.Context, cmd *cli.Command) error {
	restored, err := r.Form().Load(ctx)
	if err != nil {
		return err
	}
	if !restored {
		return r.writePlain("No remembered credentials.\n")
	}

	s := r.Form().Snapshot()
	creds := s.Credentials
	creds.PelotonPassword = mask(creds.PelotonPassword)
	creds.GarminPassword = mask(creds.GarminPassword)

	if cmd.Bool("json") {
		return r.writeJSON(models.NewPersistedRecord(creds, s.Options.TodayOnly), true)
	}

	r.writePlainHeader("Remembered credentials")
	rows := [][2]string{
		{"Peloton email", creds.PelotonEmail},
		{"Peloton password", creds.PelotonPassword},
		{"Garmin email", creds.GarminEmail},
		{"Garmin password", creds.GarminPassword},
		{"Garmin gear", creds.GarminPelotonGearName},
	}
	for _, row := range rows {
		r.writePlain("%-18s %s\n", row[0]+":", row[1])
	}
	r.writePlain("%-18s %t\n", "Today only:", s.Options.TodayOnly)

	if missing := s.Credentials.Missing(); len(missing) > 0 {
		r.writePlainln("Missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// CredentialsForget removes the remembered record.
func (r *Runner) CredentialsForget(ctx context.Context, cmd *cli.Command) error {
	if err := r.Form().Forget(ctx); err != nil {
		return err
	}
	r.logger.Info("removed remembered credentials", "key", models.StorageKey)
	return r.writePlain("✓ Remembered credentials removed\n")
}
