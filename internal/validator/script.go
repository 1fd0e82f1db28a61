// Package validator implements the worker's script sanity check: a
// pattern-based rejection of obviously dangerous run.sh scripts. It is a
// sanity check, not a sandbox (spec §4.7) — acceptance grants no security
// guarantees, and the process that executes an accepted script still runs
// with the worker's full privileges.
package validator

import (
	"fmt"
	"os"
	"regexp"
)

type forbiddenPattern struct {
	re          *regexp.Regexp
	description string
}

// forbiddenPatterns is the fixed configuration surface spec §4.7 calls out:
// destructive filesystem commands, outbound-network tools, reverse-shell
// constructs, privilege-escalation helpers, container-escape calls,
// kernel/firewall manipulation, obfuscated execution, persistence/scheduler
// tampering, fork bombs, resource exhaustion, crypto-miner binaries, and
// reads of known secret-bearing environment variables.
var forbiddenPatterns = compile([]struct {
	pattern     string
	description string
}{
	// Destructive commands
	{`rm\s+(-[a-zA-Z]*)?.*(/|~)`, "destructive rm command"},
	{`\bmkfs\b`, "filesystem format command"},
	{`dd\s+.*of=/dev`, "direct device write"},
	{`dd\s+.*if=/dev/(zero|urandom)`, "disk-filling dd command"},
	// Sensitive file access
	{`/etc/passwd`, "access to /etc/passwd"},
	{`/etc/shadow`, "access to /etc/shadow"},
	{`/etc/sudoers`, "access to /etc/sudoers"},
	{`/proc/`, "access to /proc"},
	{`/sys/`, "access to /sys"},
	{`~/\.ssh/`, "access to SSH keys"},
	{`/root/`, "access to root home"},
	{`/var/run/docker\.sock`, "access to Docker socket"},
	// Network exfiltration tools
	{`\bcurl\b`, "network tool: curl"},
	{`\bwget\b`, "network tool: wget"},
	{`\bnc\b`, "network tool: nc"},
	{`\bncat\b`, "network tool: ncat"},
	{`\bsocat\b`, "network tool: socat"},
	{`\bssh\b`, "network tool: ssh"},
	{`\bscp\b`, "network tool: scp"},
	{`\bsftp\b`, "network tool: sftp"},
	{`\btelnet\b`, "network tool: telnet"},
	{`\brsync\b`, "network tool: rsync"},
	// Reverse shells
	{`/dev/tcp/`, "reverse shell via /dev/tcp"},
	{`/dev/udp/`, "reverse shell via /dev/udp"},
	// Privilege escalation
	{`\bsudo\b`, "privilege escalation: sudo"},
	{`su\s+`, "privilege escalation: su"},
	{`chmod\s+[0-7]*[4-7][0-7]{2}|chmod\s+\+s`, "dangerous chmod"},
	{`\bchown\b`, "ownership change: chown"},
	// Container/system escape
	{`\bchroot\b`, "container escape: chroot"},
	{`\bnsenter\b`, "container escape: nsenter"},
	{`\bunshare\b`, "container escape: unshare"},
	{`\bmount\b`, "filesystem manipulation: mount"},
	{`\bumount\b`, "filesystem manipulation: umount"},
	{`\bdocker\b`, "container escape: docker"},
	{`\bkubectl\b`, "container escape: kubectl"},
	// Kernel/system manipulation
	{`\bsysctl\b`, "kernel manipulation: sysctl"},
	{`\bmodprobe\b`, "kernel module: modprobe"},
	{`\binsmod\b`, "kernel module: insmod"},
	{`\brmmod\b`, "kernel module: rmmod"},
	{`\biptables\b`, "firewall manipulation: iptables"},
	{`\bnftables\b`, "firewall manipulation: nftables"},
	// Obfuscated execution
	{`base64.*\|\s*(bash|sh)`, "obfuscated execution: base64 pipe to shell"},
	{`\beval\s+`, "dynamic code execution: eval"},
	{`\bpython[23]?\s+-c\b`, "inline interpreter: python"},
	{`\bperl\s+-e\b`, "inline interpreter: perl"},
	{`\bruby\s+-e\b`, "inline interpreter: ruby"},
	// Persistence mechanisms
	{`\bcrontab\b`, "persistence: crontab"},
	{`/etc/cron`, "persistence: cron directory"},
	{`\bsystemctl\b`, "persistence: systemctl"},
	{`\bservice\s+`, "persistence: service command"},
	{`\bat\b`, "persistence: at scheduler"},
	// Fork bombs
	{`:\(\)\{.*:\|:`, "fork bomb"},
	// Resource exhaustion
	{`\bstress\b`, "resource exhaustion: stress"},
	{`\bstress-ng\b`, "resource exhaustion: stress-ng"},
	// Crypto mining
	{`\bxmrig\b`, "crypto mining: xmrig"},
	{`\bminerd\b`, "crypto mining: minerd"},
	{`\bcpuminer\b`, "crypto mining: cpuminer"},
	// Environment secrets
	{`\$AWS_`, "environment secret: AWS"},
	{`\$SECRET`, "environment secret: SECRET"},
	{`\$TOKEN`, "environment secret: TOKEN"},
	{`\$PASSWORD`, "environment secret: PASSWORD"},
	{`\$API_KEY`, "environment secret: API_KEY"},
})

func compile(defs []struct {
	pattern     string
	description string
}) []forbiddenPattern {
	out := make([]forbiddenPattern, 0, len(defs))
	for _, d := range defs {
		out = append(out, forbiddenPattern{re: regexp.MustCompile(d.pattern), description: d.description})
	}
	return out
}

// RejectionError reports that a script matched a forbidden pattern.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("script rejected: %s", e.Reason)
}

// ValidateFile reads path and checks its contents against the forbidden
// pattern table. A missing file is reported as its own error, distinct
// from a rejection, so callers can tell "no run.sh" from "unsafe run.sh".
func ValidateFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("validator: read %q: %w", path, err)
	}
	return ValidateContent(content)
}

// ValidateContent checks script content against the forbidden pattern
// table, returning a *RejectionError on the first match.
func ValidateContent(content []byte) error {
	for _, p := range forbiddenPatterns {
		if p.re.Match(content) {
			return &RejectionError{Reason: p.description}
		}
	}
	return nil
}
