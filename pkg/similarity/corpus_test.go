package similarity

import "fmt"

// sampleCorpus builds a deterministic access-log style corpus of n lines.
func sampleCorpus(n int) []string {
	templates := []string{
		"10.0.%d.%d - - [01/Jun/2017:12:%02d:00 +0900] \"GET /index.html HTTP/1.1\" 200 %d",
		"10.0.%d.%d - - [01/Jun/2017:12:%02d:00 +0900] \"POST /api/login HTTP/1.1\" 401 %d",
		"kernel: [%d.%d] eth0: link up, %d Mbps, full duplex %d",
		"sshd[%d]: Accepted publickey for deploy from 192.168.%d.%d port %d",
	}
	lines := make([]string, n)
	for i := range lines {
		tpl := templates[(i*7+i/5)%len(templates)]
		lines[i] = fmt.Sprintf(tpl, i%17, i%251, i%60, 100+i*13%9000)
	}
	return lines
}
