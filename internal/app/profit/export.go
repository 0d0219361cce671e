package profit

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"server-profit-app/internal/model"
	"server-profit-app/internal/pkg/util"
)

// WritePayouts writes one "wallet,reward" line per pending claim with a
// positive reward, floored to 6 decimals.
func WritePayouts(w io.Writer, claims []model.RewardClaim) (n int, err error) {
	buf := bufio.NewWriter(w)
	for _, c := range claims {
		if c.Status != model.ClaimPending || c.RewardAmount <= 0 {
			continue
		}
		if _, err = fmt.Fprintf(buf, "%s,%f\n", c.WalletAddress, util.FloorPrecision(c.RewardAmount)); err != nil {
			return n, errors.Wrap(err, "write payout line")
		}
		n++
	}
	return n, errors.Wrap(buf.Flush(), "flush payouts")
}

// PayoutFileName is the export file name of a period.
func PayoutFileName(periodID string, at time.Time) string {
	return fmt.Sprintf("payout_%s_%s.txt", periodID, at.UTC().Format("20060102150405"))
}

// WritePayoutFile writes the payout lines of claims into dir and returns
// the file path.
func WritePayoutFile(dir, periodID string, claims []model.RewardClaim, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(err, "create payout dir")
	}
	path := filepath.Join(dir, PayoutFileName(periodID, at))
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "create payout file")
	}
	if err = writeAndClose(f, claims); err != nil {
		return "", err
	}
	return path, nil
}

// writeAndClose returns the Close error once writing succeeded.
func writeAndClose(wc io.WriteCloser, claims []model.RewardClaim) error {
	if _, err := WritePayouts(wc, claims); err != nil {
		_ = wc.Close()
		return err
	}
	return errors.Wrap(wc.Close(), "close payout file")
}
