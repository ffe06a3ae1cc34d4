// Genetic health coach: generate subject-based guidance reports from
// annotated VCF files, or serve the upload demo in a browser.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/helixworks/go-agents/internal/env"
	"github.com/helixworks/go-agents/internal/log"
	"github.com/helixworks/go-agents/pkg/coach"
	"github.com/helixworks/go-agents/pkg/vcf"
	"github.com/helixworks/go-agents/pkg/webapp"
)

var (
	flagSubjects []string
	flagJSON     bool
	flagOutput   string
	flagFTPUser  string
	flagFTPPass  string
	flagFTPDir   string
	flagGDoc     string
	flagGDocID   string
	flagHost     string
	flagPort     string
	flagDebug    bool
)

var rootCmd = &cobra.Command{
	Use:   "health-coach",
	Short: "Generate genetic health guidance from annotated VCF files",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "info"
		if flagDebug {
			level = "debug"
		}
		log.Init(level)
		env.Load()
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <vcf-path>",
	Short: "Build subject reports from an annotated VCF file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		genes, err := vcf.Parse(args[0])
		if err != nil {
			return err
		}

		report, err := coach.BuildReport(genes, flagSubjects)
		if err != nil {
			return err
		}

		var output string
		if flagJSON {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			output = string(data)
		} else {
			output = coach.FormatReport(report)
		}

		if flagGDoc != "" || flagGDocID != "" {
			syncer, err := coach.NewDocsSyncer(cmd.Context())
			if err != nil {
				return err
			}
			docID := flagGDocID
			if docID != "" {
				if err := syncer.ReplaceDoc(cmd.Context(), docID, output+"\n"); err != nil {
					return err
				}
			} else {
				docID, err = syncer.CreateDoc(cmd.Context(), flagGDoc, output+"\n")
				if err != nil {
					return err
				}
			}
			fmt.Printf("Report published at: https://docs.google.com/document/d/%s\n", docID)
			return nil
		}

		if flagOutput != "" {
			msg, err := coach.PersistReport(output+"\n", coach.PersistOptions{
				Destination:  flagOutput,
				FTPUsername:  flagFTPUser,
				FTPPassword:  flagFTPPass,
				FTPDirectory: flagFTPDir,
			})
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		}

		fmt.Println(output)
		return nil
	},
}

var subjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "List the available report subjects",
	Run: func(cmd *cobra.Command, args []string) {
		keys := make([]string, 0, len(coach.Subjects))
		for key := range coach.Subjects {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Printf("%s - %s\n", key, coach.Subjects[key])
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the upload and analysis web demo",
	RunE: func(cmd *cobra.Command, args []string) error {
		server := webapp.NewServer(webapp.Config{
			Host: flagHost,
			Port: flagPort,
		})
		return server.Start()
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable verbose debug logging")

	reportCmd.Flags().StringSliceVarP(&flagSubjects, "subject", "s", nil,
		"Subject to analyze (repeatable). Default: all subjects")
	reportCmd.Flags().BoolVar(&flagJSON, "json", false, "Emit structured JSON instead of text")
	reportCmd.Flags().StringVarP(&flagOutput, "output", "o", "",
		"Write the report to a local path or ftp:// URL instead of stdout")
	reportCmd.Flags().StringVar(&flagFTPUser, "ftp-user", "", "FTP username for ftp:// destinations")
	reportCmd.Flags().StringVar(&flagFTPPass, "ftp-pass", "", "FTP password for ftp:// destinations")
	reportCmd.Flags().StringVar(&flagFTPDir, "ftp-dir", "", "FTP directory to change into after login")
	reportCmd.Flags().StringVar(&flagGDoc, "gdoc", "",
		"Publish the report to a new Google Doc with this title")
	reportCmd.Flags().StringVar(&flagGDocID, "gdoc-id", "",
		"Overwrite an existing Google Doc with the report")

	serveCmd.Flags().StringVar(&flagHost, "host", env.Get("GENETIC_HEALTH_COACH_HOST", "127.0.0.1"),
		"Address the demo server listens on")
	serveCmd.Flags().StringVar(&flagPort, "port", env.Get("GENETIC_HEALTH_COACH_PORT", "8000"),
		"Port the demo server listens on")

	rootCmd.AddCommand(reportCmd, subjectsCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
