package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"diabetesrisk/config"
	"diabetesrisk/db"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	email := flag.String("email", "", "only show predictions for this email")
	asJSON := flag.Bool("json", false, "print JSON instead of a table")
	trainingLog := flag.Bool("training", false, "print the training log instead of predictions")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := db.Open(ctx, cfg.Database.Path, zap.NewNop())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *trainingLog {
		logs, err := store.LoadTrainingLog(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read training log: %v\n", err)
			os.Exit(1)
		}
		if *asJSON {
			printJSON(logs)
			return
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tMODEL\tACCURACY\tPRECISION\tRECALL\tSAMPLES\tTRAINED AT")
		for _, l := range logs {
			fmt.Fprintf(w, "%s\t%s\t%.3f\t%.3f\t%.3f\t%d\t%s\n", l.RunID, l.ModelName, l.Accuracy, l.Precision, l.Recall, l.DataPoints, l.TrainedAt.Format("2006-01-02 15:04:05"))
		}
		w.Flush()
		return
	}

	var records []db.PredictionRecord
	if *email != "" {
		records, err = store.PredictionHistory(ctx, *email)
	} else {
		records, err = store.AllPredictions(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read predictions: %v\n", err)
		os.Exit(1)
	}
	if *asJSON {
		printJSON(records)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tPREG\tGLUCOSE\tBP\tSKIN\tINSULIN\tBMI\tPEDIGREE\tAGE\tRESULT")
	for _, r := range records {
		f := r.Features
		fmt.Fprintf(w, "%d\t%s\t%d\t%g\t%g\t%g\t%g\t%g\t%g\t%d\t%d\n",
			r.ID, r.Email, f.Pregnancies, f.Glucose, f.BloodPressure, f.SkinThickness, f.Insulin, f.BMI, f.DiabetesPedigree, f.Age, r.Result)
	}
	w.Flush()
	fmt.Printf("%d predictions\n", len(records))
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode: %v\n", err)
		os.Exit(1)
	}
}
