package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/relink-tools/relink/pkg/consolidate"
	"github.com/relink-tools/relink/pkg/expression"
	"github.com/relink-tools/relink/pkg/inodemap"
	"github.com/relink-tools/relink/pkg/logger"
	"github.com/relink-tools/relink/pkg/notification"
	"github.com/relink-tools/relink/pkg/scanner"
)

var (
	flagLogLevel  int
	flagLogFile   string
	flagDryRun    bool
	flagWorkers   int
	flagExcludes  []string
	flagNotifyURL string
)

var rootCmd = &cobra.Command{
	Use:   "relink <target>...",
	Short: "Deduplicate files by hardlinking identical content",
	Long: `Scans the given targets for regular files with byte-identical content and
collapses each group of duplicates into hardlinks to a single inode,
reclaiming the space the redundant copies occupied. All original paths are
preserved. Hardlinks never cross filesystems, so deduplication is scoped
to each device.`,

	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		start := time.Now()

		if err := logger.Init(flagLogLevel, flagLogFile); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		log := logger.GetLogger("relink")

		excludes, err := expression.Compile(flagExcludes)
		if err != nil {
			log.WithError(err).Fatal("Failed compiling exclude expressions")
		}

		// phase one: classify everything before any mutation; relinking
		// invalidates the inode/path mapping classification relies on
		db := inodemap.New()
		s := scanner.New(db, scanner.Options{
			Excludes: excludes,
			Workers:  flagWorkers,
		})

		if err := s.Scan(args); err != nil {
			log.WithError(err).Fatal("Failed scanning targets")
		}

		// phase two: consolidate the finished database
		result, err := consolidate.Run(db, consolidate.Options{
			DryRun: flagDryRun,
		})
		if err != nil {
			log.WithError(err).Fatal("Failed consolidating duplicate files")
		}

		fmt.Printf("Gain: %s bytes\n", humanize.Comma(int64(result.ReclaimedBytes)))

		sendNotification(log, result, time.Since(start))
	},
}

func sendNotification(log *logrus.Entry, result *consolidate.Result, runTime time.Duration) {
	noti := notification.NewDiscordSender(log, flagNotifyURL)
	if !noti.CanSend() {
		log.Debug("Notifications disabled, skipping...")
		return
	}

	fields := make([]notification.Field, 0, len(result.Groups))
	for _, group := range result.Groups {
		fields = append(fields, notification.Field{
			Name: group.Canonical,
			Value: fmt.Sprintf("%d paths relinked / %s reclaimed",
				len(group.Relinked), humanize.IBytes(group.Reclaimed)),
		})
	}

	title := "Relink"
	if flagDryRun {
		title += " (Dry Run)"
	}

	sendErr := noti.Send(
		title,
		fmt.Sprintf("Consolidated **%d** groups, relinked **%d** paths | Total reclaimed **%s**",
			len(result.Groups), result.RelinkedPaths, humanize.IBytes(result.ReclaimedBytes)),
		runTime,
		fields,
	)
	if sendErr != nil {
		log.WithError(sendErr).Error("Failed sending notification")
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&flagLogLevel, "verbose", "v", "Verbose level")
	rootCmd.PersistentFlags().StringVarP(&flagLogFile, "log", "l", "", "Log file")

	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Report without relinking anything")
	rootCmd.Flags().IntVar(&flagWorkers, "workers", 0, "Scan parallelism (0 = automatic)")
	rootCmd.Flags().StringArrayVar(&flagExcludes, "exclude", nil,
		"Exclude files matching an expression, e.g. 'Ext == \".iso\"' (repeatable)")
	rootCmd.Flags().StringVar(&flagNotifyURL, "notify-url", "", "Webhook URL for a run summary")
}
