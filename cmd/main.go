// Command matching-service scores graduate, student and worker profiles
// against farm job postings and surfaces ranked matches to both sides of the
// marketplace:
//
//	score    0..100 compatibility of one job/applicant pair
//	matches  applicants ranked for a job, or jobs ranked for an applicant
//	notify   in-app "New Job Match Found" fan-out to a job's best applicants
//	serve    REST (gin) and gRPC side by side, plus the cron sweep
//
// The sweep notifies the best applicants of newly posted jobs. Each delivered
// notification is also published as EVENT_MATCH_FOUND on Redis so the
// Gateway can forward it to live clients.
package main

import (
	"context"
	"os"
)

const (
	app     = "matching-service"
	version = "1.0.0"
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
