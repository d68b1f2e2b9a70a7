package netconfig

// NotSet is shown in place of an empty secret
const NotSet = "(not set)"

// MaskSecret hides all but a short prefix and suffix of a secret.
// Secrets too short to keep part of them hidden are masked entirely.
func MaskSecret(secret string) string {
	if secret == "" {
		return NotSet
	}
	if len(secret) <= 12 {
		return "****"
	}
	return secret[:8] + "..." + secret[len(secret)-4:]
}

// Masked returns a copy of c with every account and API key masked
func (c *Config) Masked() *Config {
	out := c.Clone()
	for name, n := range out.Networks {
		for i, acct := range n.Accounts {
			n.Accounts[i] = MaskSecret(acct)
		}
		out.Networks[name] = n
	}
	for name, key := range out.Etherscan.APIKey {
		out.Etherscan.APIKey[name] = MaskSecret(key)
	}
	return out
}
