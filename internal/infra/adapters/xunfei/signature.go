package xunfei

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"strconv"
)

// Sign computes the request signature: base64(HMAC-SHA1(secret, md5hex(appID + ts))).
func Sign(appID, secret string, ts int64) string {
	sum := md5.Sum([]byte(appID + strconv.FormatInt(ts, 10)))
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(hex.EncodeToString(sum[:])))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
