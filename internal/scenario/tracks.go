package scenario

import "lnops-sim/internal/incident"

// Built-in track identifiers.
const (
	TrackLightningOperator = "lightning-operator"
	TrackSovereign         = "sovereign"
	TrackWalletMastery     = "wallet-mastery"

	// DefaultTrack is used whenever a lookup misses.
	DefaultTrack = TrackLightningOperator
)

// BuiltIn returns the predefined incident tables for each learning track.
func BuiltIn() map[string][]incident.Template {
	return map[string][]incident.Template{
		TrackLightningOperator: {
			{
				Type:      "CHANNEL_BREACH",
				Title:     "HTLC Breach Attempt",
				Symptom:   "WARN: Channel 24x789 state mismatch. Remote peer broadcasting old commitment.",
				RootCause: "Malicious Peer / Watchtower Latency",
				Severity:  incident.SeverityCritical,
				DecayRate: 1.5,
			},
			{
				Type:      "FEE_SPIKE",
				Title:     "Mempool Congestion",
				Symptom:   "ERROR: 14 HTLCs pending. Commitment tx fee below relay threshold.",
				RootCause: "Fee Market Volatility",
				Severity:  incident.SeverityHigh,
				DecayRate: 0.8,
			},
			{
				Type:      "DB_CORRUPTION",
				Title:     "State DB Lock",
				Symptom:   "FATAL: channel.db is locked by another process. RPC unresponsive.",
				RootCause: "IO Wait / Disk Failure",
				Severity:  incident.SeverityHigh,
				DecayRate: 1.2,
			},
			{
				Type:      "PEER_DISCONNECT",
				Title:     "Liquidity Partition",
				Symptom:   "INFO: 80% of inbound liquidity offline. Routing failures increasing.",
				RootCause: "Peer ISP Outage",
				Severity:  incident.SeverityMedium,
				DecayRate: 0.4,
			},
			{
				Type:      "GOSSIP_FLOOD",
				Title:     "Gossip Storm",
				Symptom:   "WARN: CPU load > 95%. Processing excessive channel updates.",
				RootCause: "DDoS / Spam",
				Severity:  incident.SeverityLow,
				DecayRate: 0.2,
			},
		},
		TrackSovereign: {
			{
				Type:      "SYBIL_ATTACK",
				Title:     "Sybil Attack Detected",
				Symptom:   "WARN: 80% of peers returning invalid headers. Consensus divergent.",
				RootCause: "Network Partition",
				Severity:  incident.SeverityHigh,
				DecayRate: 1.2,
			},
			{
				Type:      "DUST_STORM",
				Title:     "Dust Attack",
				Symptom:   "Mempool spiked to 300MB. Minimum relay fee increased to 20 sat/vB.",
				RootCause: "Spam Attack",
				Severity:  incident.SeverityMedium,
				DecayRate: 0.6,
			},
			{
				Type:      "PRIVACY_LEAK",
				Title:     "Address Reuse",
				Symptom:   "ALERT: Change output correlated with KYC inputs. Privacy score dropping.",
				RootCause: "Wallet Misconfiguration",
				Severity:  incident.SeverityHigh,
				DecayRate: 0.9,
			},
		},
		TrackWalletMastery: {
			{
				Type:      "KEY_LEAK",
				Title:     "Entropy Failure",
				Symptom:   "CRITICAL: PRNG weakness detected in signing module.",
				RootCause: "Weak Randomness",
				Severity:  incident.SeverityCritical,
				DecayRate: 1.8,
			},
			{
				Type:      "PHISHING",
				Title:     "Clipboard Hijack",
				Symptom:   "WARN: Destination address mismatch detected during signing.",
				RootCause: "Malware",
				Severity:  incident.SeverityHigh,
				DecayRate: 1.0,
			},
			{
				Type:      "BACKUP_ROT",
				Title:     "Bit Rot",
				Symptom:   "ERROR: Checksum failure on mnemonic shard #2.",
				RootCause: "Data Corruption",
				Severity:  incident.SeverityMedium,
				DecayRate: 0.5,
			},
		},
	}
}
